package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var (
	_ repository.ClientRepository          = (*ClientRepo)(nil)
	_ repository.ServiceOfferingRepository = (*ServiceOfferingRepo)(nil)
	_ repository.DestinationRepository     = (*DestinationRepo)(nil)
)

// ClientRepo lectura de clientes (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID obtiene un cliente por ID.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, name, COALESCE(tax_id, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at
		FROM clients WHERE id = $1`
	var c entity.Client
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// ServiceOfferingRepo lectura de ofertas de servicio.
type ServiceOfferingRepo struct {
	q Querier
}

func NewServiceOfferingRepository(q Querier) *ServiceOfferingRepo {
	return &ServiceOfferingRepo{q: q}
}

func (r *ServiceOfferingRepo) GetByID(ctx context.Context, id string) (*entity.ServiceOffering, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var o entity.ServiceOffering
	err := r.q.QueryRow(ctx, `SELECT id, code, name, active FROM service_offerings WHERE id = $1`, id).
		Scan(&o.ID, &o.Code, &o.Name, &o.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service offering: %w", err)
	}
	return &o, nil
}

// DestinationRepo lectura de destinos y su zona tarifaria.
type DestinationRepo struct {
	q Querier
}

func NewDestinationRepository(q Querier) *DestinationRepo {
	return &DestinationRepo{q: q}
}

func (r *DestinationRepo) GetByID(ctx context.Context, id string) (*entity.Destination, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var dst entity.Destination
	err := r.q.QueryRow(ctx, `SELECT id, name, zone_id, active FROM destinations WHERE id = $1`, id).
		Scan(&dst.ID, &dst.Name, &dst.ZoneID, &dst.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get destination: %w", err)
	}
	return &dst, nil
}
