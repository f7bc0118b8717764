package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y su relación con envíos.
type InvoiceRepository interface {
	// NextNumber reserva el siguiente número de factura. Puede dejar huecos si la transacción aborta.
	NextNumber(ctx context.Context, prefix string, issueDate time.Time) (string, error)
	// Create persiste la cabecera y los vínculos factura-envío.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// Update escribe saldos y estado solo si la revisión persistida es invoice.Revision;
	// en ese caso incrementa invoice.Revision. Si no, devuelve domain.ErrConcurrentUpdate.
	// Al anular libera los vínculos con los envíos.
	Update(ctx context.Context, invoice *entity.Invoice) error
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Invoice, error)
}
