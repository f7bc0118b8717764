package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordPaymentRequest body para POST /api/invoices/:id/payments.
// IdempotencyKey es opcional; también puede enviarse en el header Idempotency-Key.
type RecordPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required,oneof=cash bank_transfer check card mobile_money"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	Reference      string          `json:"reference,omitempty" validate:"max=120"`
	Notes          string          `json:"notes,omitempty" validate:"max=1000"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"max=128"`
}

// PaymentResponse pago en respuestas (activos y anulados).
type PaymentResponse struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	ClientID    string          `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	PaymentDate time.Time       `json:"payment_date"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Status      string          `json:"status"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentResultResponse pago registrado/anulado junto con la factura resultante.
type PaymentResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
	Replay  bool            `json:"replay,omitempty"` // true si se devolvió un pago previo por idempotencia
}
