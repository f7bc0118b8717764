package payment

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

// PaymentTxRunner ejecuta fn en una transacción que abarca la factura y sus pagos.
type PaymentTxRunner interface {
	RunPayment(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}
