package memory

import (
	"context"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

type offeringRepo struct{ s *Store }

func (r *offeringRepo) GetByID(_ context.Context, id string) (*entity.ServiceOffering, error) {
	var out *entity.ServiceOffering
	_ = r.s.view(false, func(d *dataset) error {
		if o, ok := d.offerings[id]; ok {
			out = &o
		}
		return nil
	})
	return out, nil
}

type destinationRepo struct{ s *Store }

func (r *destinationRepo) GetByID(_ context.Context, id string) (*entity.Destination, error) {
	var out *entity.Destination
	_ = r.s.view(false, func(d *dataset) error {
		if dst, ok := d.destinations[id]; ok {
			out = &dst
		}
		return nil
	})
	return out, nil
}

type clientRepo struct{ s *Store }

func (r *clientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	var out *entity.Client
	_ = r.s.view(false, func(d *dataset) error {
		if c, ok := d.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, nil
}
