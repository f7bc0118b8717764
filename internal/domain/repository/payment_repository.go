package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para pagos (solo inserción y cambio de estado).
type PaymentRepository interface {
	// Create devuelve domain.ErrDuplicate si la clave de idempotencia ya existe.
	Create(ctx context.Context, payment *entity.Payment) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	// ListByInvoice devuelve activos y anulados ordenados por payment_date descendente.
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	// UpdateStatus persiste la anulación; solo aplica si el pago seguía activo,
	// si no devuelve domain.ErrConcurrentUpdate.
	UpdateStatus(ctx context.Context, payment *entity.Payment) error
}
