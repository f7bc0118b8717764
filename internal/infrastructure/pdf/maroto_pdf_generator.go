// Package pdf genera la representación imprimible de una factura de envíos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor              │  N° Factura + Fechas         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + NIT + contacto                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA ENVÍOS: Guía | Estado | Bultos | Importe             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: HT / TVA / TTC / Pagado / Saldo                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PAGOS: Fecha | Método | Referencia | Estado | Monto        │
//	│  FOOTER: QR de verificación + estado                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	places int32
}

// NewMarotoPDFGenerator construye el generador; places son los decimales de la moneda.
func NewMarotoPDFGenerator(places int32) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{places: places}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, doc appbilling.InvoiceDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+doc.Details.Number, true).
		WithAuthor(nonEmpty(doc.Issuer, "Facturación de envíos"), true).
		Build()

	m := maroto.New(cfg)
	d := doc.Details

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(clientRow(d.Client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(shipmentHeaderRow())
	for _, r := range g.shipmentRows(d.Shipments) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(d.InvoiceResponse))

	if len(doc.Payments) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(paymentHeaderRow())
		for _, r := range g.paymentRows(doc.Payments) {
			m.AddRows(r)
		}
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor (izq) y número + fechas (der).
func headerRow(doc appbilling.InvoiceDocument) core.Row {
	d := doc.Details
	return row.New(20).Add(
		col.New(7).Add(
			text.New(nonEmpty(doc.Issuer, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+doc.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA DE TRANSPORTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(d.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Emisión: "+d.IssueDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
			text.New("Vencimiento: "+d.DueDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 16, Color: colorGray,
			}),
		),
	)
}

func clientRow(c dto.ClientSummary) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Dirección: %s",
				nonEmpty(c.TaxID, "—"),
				nonEmpty(c.Email, "—"),
				nonEmpty(c.Address, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func shipmentHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Guía", 4, align.Left),
		h("Estado", 3, align.Left),
		h("Bultos", 2, align.Center),
		h("Importe", 3, align.Right),
	)
}

// shipmentRows: una fila por envío facturado.
func (g *MarotoPDFGenerator) shipmentRows(lines []dto.InvoiceShipmentLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(nonEmpty(l.TrackingNumber, l.ShipmentID),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(3).Add(text.New(l.Status,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", l.Packages),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New("$"+formatAmount(l.Amount, g.places),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func (g *MarotoPDFGenerator) totalsRow(inv dto.InvoiceResponse) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	tvaLabel := fmt.Sprintf("TVA (%s%%):", inv.TVARate.Mul(decimal.NewFromInt(100)).String())

	return row.New(30).Add(
		col.New(4),
		col.New(4).Add(
			label("Total HT:"),
			label(tvaLabel),
			label("TOTAL TTC:"),
			label("Pagado:"),
			label("Saldo:"),
		),
		col.New(4).Add(
			value("$"+formatAmount(inv.AmountHT, g.places)),
			value("$"+formatAmount(inv.TVAAmount, g.places)),
			text.New("$"+formatAmount(inv.TotalTTC, g.places), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
			value("$"+formatAmount(inv.AmountPaid, g.places)),
			value("$"+formatAmount(inv.AmountDue, g.places)),
		),
	)
}

func paymentHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Método", 3, align.Left),
		h("Referencia", 3, align.Left),
		h("Estado", 2, align.Left),
		h("Monto", 2, align.Right),
	)
}

// paymentRows: los pagos anulados se listan en rojo y no suman.
func (g *MarotoPDFGenerator) paymentRows(payments []dto.PaymentResponse) []core.Row {
	result := make([]core.Row, 0, len(payments))
	for _, p := range payments {
		c := colorGray
		if p.CancelledAt != nil {
			c = colorRed
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(p.PaymentDate.Format("02/01/2006"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(p.Method, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nonEmpty(p.Reference, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(p.Status, props.Text{Size: 8, Top: 1, Left: 1, Color: c})),
			col.New(2).Add(text.New("$"+formatAmount(p.Amount, g.places),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// footerRow: QR con número|TTC|estado para conciliación manual.
func (g *MarotoPDFGenerator) footerRow(doc appbilling.InvoiceDocument) core.Row {
	d := doc.Details
	qr := strings.Join([]string{d.Number, d.TotalTTC.StringFixed(g.places), d.Status}, "|")
	statusColor := colorPrimary
	if d.Status == "cancelled" || d.Status == "overdue" {
		statusColor = colorRed
	}
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("Estado: "+strings.ToUpper(d.Status), props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 4, Left: 3, Color: statusColor,
			}),
			text.New("Conserve este documento como soporte del servicio de transporte.", props.Text{
				Size: 8, Top: 14, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount formatea con puntos de miles y coma decimal.
// Ej: 2380 con 2 decimales → "2.380,00"
func formatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	out := sign + formatMoney(intPart)
	if frac != "" {
		out += "," + frac
	}
	return out
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
