package billing

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye envíos, facturas y pagos.
// Si fn devuelve error no queda ningún cambio persistido.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		shipmentRepo repository.ShipmentRepository,
		invoiceRepo repository.InvoiceRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}

// InvoicePDFGenerator genera la representación PDF de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}
