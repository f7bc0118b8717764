package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

type shipmentRepo struct {
	s    *Store
	inTx bool
}

func (r *shipmentRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Shipment, error) {
	out := make([]*entity.Shipment, 0, len(ids))
	_ = r.s.view(r.inTx, func(d *dataset) error {
		for _, id := range ids {
			if sh, ok := d.shipments[id]; ok {
				cp := copyShipment(sh)
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, nil
}

func (r *shipmentRepo) SetInvoiced(_ context.Context, id string, invoiced bool) error {
	return r.s.update(r.inTx, func(d *dataset) error {
		sh, ok := d.shipments[id]
		if !ok {
			return fmt.Errorf("%w: envío %s", domain.ErrNotFound, id)
		}
		if sh.Invoiced == invoiced {
			return fmt.Errorf("%w: el envío %s ya tiene invoiced=%t", domain.ErrConflict, id, invoiced)
		}
		sh.Invoiced = invoiced
		d.shipments[id] = sh
		return nil
	})
}
