package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// ShipmentRepository puerto hacia los envíos del subsistema de operaciones.
// Facturación solo lee envíos y cambia la marca Invoiced.
type ShipmentRepository interface {
	// GetByIDs devuelve los envíos encontrados (los ausentes se omiten).
	// Dentro de una transacción bloquea las filas hasta el commit.
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Shipment, error)
	// SetInvoiced cambia la marca solo si el valor actual es el opuesto;
	// si no, devuelve domain.ErrConflict (otro proceso ya lo cambió).
	SetInvoiced(ctx context.Context, id string, invoiced bool) error
}
