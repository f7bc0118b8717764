package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

// Estados del pago. Los pagos nunca se borran: la anulación solo cambia el estado.
const (
	PaymentStatusActive    = "active"
	PaymentStatusCancelled = "cancelled"
)

// Medios de pago aceptados.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheck        = "check"
	PaymentMethodCard         = "card"
	PaymentMethodMobileMoney  = "mobile_money"
)

// ValidPaymentMethod indica si method es un medio de pago aceptado.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCard, PaymentMethodMobileMoney:
		return true
	}
	return false
}

// Payment pago registrado contra una factura.
// ClientID se desnormaliza para consultas de auditoría por cliente.
type Payment struct {
	ID             string
	InvoiceID      string
	ClientID       string
	Amount         decimal.Decimal
	Method         string
	PaymentDate    time.Time
	Reference      string
	Notes          string
	Status         string
	IdempotencyKey string
	Fingerprint    string // huella del payload asociado a IdempotencyKey
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cancel marca el pago como anulado.
func (p *Payment) Cancel(now time.Time) error {
	if p.Status == PaymentStatusCancelled {
		return fmt.Errorf("%w: el pago %s ya está anulado", domain.ErrConflict, p.ID)
	}
	p.Status = PaymentStatusCancelled
	p.CancelledAt = &now
	p.UpdatedAt = now
	return nil
}
