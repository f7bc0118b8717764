package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
)

// InvoiceDocument datos ya resueltos que necesita el generador de PDF.
type InvoiceDocument struct {
	Issuer      string
	Details     dto.InvoiceDetailsResponse
	Payments    []dto.PaymentResponse
	GeneratedAt time.Time
}

// DownloadPDF arma el documento de la factura (cliente, envíos y pagos) y lo renderiza.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
func (uc *LedgerUseCase) DownloadPDF(ctx context.Context, issuer, invoiceID string) (pdfBytes []byte, filename string, err error) {
	if uc.generator == nil {
		return nil, "", fmt.Errorf("pdf: generador no configurado")
	}
	details, err := uc.GetDetails(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	payments, err := uc.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener pagos: %w", err)
	}
	doc := InvoiceDocument{
		Issuer:      issuer,
		Details:     *details,
		Payments:    make([]dto.PaymentResponse, 0, len(payments)),
		GeneratedAt: uc.now(),
	}
	for _, p := range payments {
		doc.Payments = append(doc.Payments, dto.NewPaymentResponse(p))
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	if len(pdfBytes) == 0 {
		return nil, "", fmt.Errorf("pdf: el documento de la factura %s quedó vacío", details.Number)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", details.Number), nil
}
