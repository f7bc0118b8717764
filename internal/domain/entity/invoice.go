package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/money"
)

// Estados de la factura.
const (
	InvoiceStatusPending   = "pending"   // emitida, sin pagos
	InvoiceStatusPartial   = "partial"   // con pagos, saldo pendiente
	InvoiceStatusPaid      = "paid"      // saldo en cero
	InvoiceStatusOverdue   = "overdue"   // derivado al consultar; nunca se persiste
	InvoiceStatusCancelled = "cancelled" // terminal, solo sin pagos
)

// Invoice cabecera de la factura de envíos.
// Invariante: AmountPaid >= 0, AmountDue >= 0 y AmountPaid + AmountDue == TotalTTC.
// Revision se incrementa en cada escritura (control de concurrencia optimista).
type Invoice struct {
	ID          string
	Number      string
	ClientID    string
	ShipmentIDs []string
	AmountHT    decimal.Decimal
	TVARate     decimal.Decimal // tasa vigente al emitir; no cambia aunque cambie la configuración
	TVAAmount   decimal.Decimal
	TotalTTC    decimal.Decimal
	AmountPaid  decimal.Decimal
	AmountDue   decimal.Decimal
	Status      string
	IssueDate   time.Time
	DueDate     time.Time
	Notes       string
	Revision    int64
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInvoice arma una factura pendiente a partir del monto HT y la tasa de impuesto.
// El IVA se redondea a la unidad menor; el TTC es la suma exacta HT + IVA.
func NewInvoice(id, number, clientID string, shipmentIDs []string, amountHT, tvaRate decimal.Decimal,
	places int32, issueDate time.Time, dueInDays int, notes string) *Invoice {
	tva := money.Round(amountHT.Mul(tvaRate), places)
	total := amountHT.Add(tva)
	ids := make([]string, len(shipmentIDs))
	copy(ids, shipmentIDs)
	return &Invoice{
		ID:          id,
		Number:      number,
		ClientID:    clientID,
		ShipmentIDs: ids,
		AmountHT:    amountHT,
		TVARate:     tvaRate,
		TVAAmount:   tva,
		TotalTTC:    total,
		AmountPaid:  decimal.Zero,
		AmountDue:   total,
		Status:      InvoiceStatusPending,
		IssueDate:   issueDate,
		DueDate:     issueDate.AddDate(0, 0, dueInDays),
		Notes:       notes,
		CreatedAt:   issueDate,
		UpdatedAt:   issueDate,
	}
}

// ApplyPayment suma amount a lo pagado y recalcula saldo y estado.
// El sobrepago se rechaza; nunca se recorta ni se acredita.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: el monto del pago debe ser mayor que cero", domain.ErrValidation)
	}
	if inv.Status == InvoiceStatusCancelled {
		return fmt.Errorf("%w: la factura %s está anulada", domain.ErrConflict, inv.Number)
	}
	if amount.GreaterThan(inv.AmountDue) {
		return fmt.Errorf("%w: el monto %s excede el saldo pendiente %s", domain.ErrValidation,
			amount.String(), inv.AmountDue.String())
	}
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.AmountDue = inv.TotalTTC.Sub(inv.AmountPaid)
	if inv.AmountDue.IsZero() {
		inv.Status = InvoiceStatusPaid
	} else {
		inv.Status = InvoiceStatusPartial
	}
	inv.UpdatedAt = now
	return inv.CheckBalance()
}

// RevertPayment descuenta amount de lo pagado al anular un pago.
// Si lo pagado quedaría negativo el estado previo está corrupto: se reporta conflicto, no se recorta.
func (inv *Invoice) RevertPayment(amount decimal.Decimal, now time.Time) error {
	if inv.Status == InvoiceStatusCancelled {
		return fmt.Errorf("%w: la factura %s está anulada", domain.ErrConflict, inv.Number)
	}
	newPaid := inv.AmountPaid.Sub(amount)
	if newPaid.IsNegative() {
		return fmt.Errorf("%w: el reverso de %s dejaría la factura %s con pagado negativo (%s)",
			domain.ErrConflict, amount.String(), inv.Number, newPaid.String())
	}
	inv.AmountPaid = newPaid
	inv.AmountDue = inv.TotalTTC.Sub(newPaid)
	if newPaid.IsZero() {
		inv.Status = InvoiceStatusPending
	} else {
		inv.Status = InvoiceStatusPartial
	}
	inv.UpdatedAt = now
	return inv.CheckBalance()
}

// Cancel anula la factura. Solo se permite sin pagos activos.
func (inv *Invoice) Cancel(now time.Time) error {
	if inv.Status == InvoiceStatusCancelled {
		return fmt.Errorf("%w: la factura %s ya está anulada", domain.ErrConflict, inv.Number)
	}
	if inv.AmountPaid.IsPositive() {
		return fmt.Errorf("%w: la factura %s tiene pagos por %s; anúlelos primero", domain.ErrConflict,
			inv.Number, inv.AmountPaid.String())
	}
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	return nil
}

// DisplayStatus devuelve el estado para presentación: overdue si venció con saldo pendiente.
func (inv *Invoice) DisplayStatus(now time.Time) string {
	if (inv.Status == InvoiceStatusPending || inv.Status == InvoiceStatusPartial) &&
		inv.DueDate.Before(now) && inv.AmountDue.IsPositive() {
		return InvoiceStatusOverdue
	}
	return inv.Status
}

// CheckBalance verifica el invariante de saldos.
func (inv *Invoice) CheckBalance() error {
	if inv.AmountPaid.IsNegative() || inv.AmountDue.IsNegative() {
		return fmt.Errorf("%w: saldos negativos en la factura %s", domain.ErrConflict, inv.Number)
	}
	if !inv.AmountPaid.Add(inv.AmountDue).Equal(inv.TotalTTC) {
		return fmt.Errorf("%w: pagado + pendiente != total en la factura %s", domain.ErrConflict, inv.Number)
	}
	return nil
}
