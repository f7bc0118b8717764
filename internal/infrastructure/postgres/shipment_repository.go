package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo acceso a envíos del subsistema de operaciones. Solo cambia la marca invoiced.
type ShipmentRepo struct {
	q    Querier
	lock bool // SELECT ... FOR UPDATE; solo tiene sentido dentro de una tx
}

// NewShipmentRepository construye el adaptador de lectura. Pasar pool o tx (Querier).
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

func newLockingShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q, lock: true}
}

// GetByIDs obtiene los envíos y sus bultos; los ausentes se omiten.
func (r *ShipmentRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Shipment, error) {
	ids = onlyUUIDs(ids)
	if len(ids) == 0 {
		return []*entity.Shipment{}, nil
	}
	query := `
		SELECT id, tracking_number, client_id, service_offering_id, destination_id, total_amount,
		       status, invoiced, created_at, updated_at
		FROM shipments WHERE id = ANY($1)
		ORDER BY id`
	if r.lock {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	byID := make(map[string]*entity.Shipment, len(ids))
	out := make([]*entity.Shipment, 0, len(ids))
	for rows.Next() {
		var s entity.Shipment
		if err := rows.Scan(&s.ID, &s.TrackingNumber, &s.ClientID, &s.ServiceOfferingID, &s.DestinationID,
			&s.TotalAmount, &s.Status, &s.Invoiced, &s.CreatedAt, &s.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		byID[s.ID] = &s
		out = append(out, &s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}

	pkgRows, err := r.q.Query(ctx, `
		SELECT shipment_id, weight, length, width, height
		FROM shipment_packages WHERE shipment_id = ANY($1)
		ORDER BY shipment_id, seq`, ids)
	if err != nil {
		return nil, fmt.Errorf("query shipment packages: %w", err)
	}
	defer pkgRows.Close()
	for pkgRows.Next() {
		var shipmentID string
		var p entity.Package
		if err := pkgRows.Scan(&shipmentID, &p.Weight, &p.Length, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("scan shipment package: %w", err)
		}
		if s, ok := byID[shipmentID]; ok {
			s.Packages = append(s.Packages, p)
		}
	}
	return out, pkgRows.Err()
}

// SetInvoiced cambia la marca solo si el valor actual es el opuesto.
func (r *ShipmentRepo) SetInvoiced(ctx context.Context, id string, invoiced bool) error {
	if !isUUID(id) {
		return fmt.Errorf("%w: envío %s", domain.ErrNotFound, id)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE shipments SET invoiced = $2, updated_at = NOW()
		WHERE id = $1 AND invoiced = NOT $2`, id, invoiced)
	if err != nil {
		return fmt.Errorf("update shipment invoiced: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	ok, err := exists(ctx, r.q, "shipments", id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: envío %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: el envío %s ya tiene invoiced=%t", domain.ErrConflict, id, invoiced)
}
