package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// Puertos de solo lectura hacia datos maestros de otros subsistemas.
// GetByID devuelve (nil, nil) si no existe.

// ServiceOfferingRepository lectura de ofertas de servicio.
type ServiceOfferingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ServiceOffering, error)
}

// DestinationRepository lectura de destinos y su zona tarifaria.
type DestinationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Destination, error)
}

// ClientRepository lectura de clientes.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Client, error)
}
