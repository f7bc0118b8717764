package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

type invoiceRepo struct {
	s    *Store
	inTx bool
}

func (r *invoiceRepo) NextNumber(_ context.Context, prefix string, _ time.Time) (string, error) {
	n := r.s.invoiceSeq.Add(1)
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

func (r *invoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	return r.s.update(r.inTx, func(d *dataset) error {
		if _, exists := d.invoices[invoice.ID]; exists {
			return fmt.Errorf("%w: factura %s", domain.ErrDuplicate, invoice.ID)
		}
		if _, exists := d.numbers[invoice.Number]; exists {
			return fmt.Errorf("%w: número de factura %s", domain.ErrDuplicate, invoice.Number)
		}
		for _, sid := range invoice.ShipmentIDs {
			if other, linked := d.links[sid]; linked {
				return fmt.Errorf("%w: el envío %s ya pertenece a la factura %s", domain.ErrConflict, sid, other)
			}
		}
		for _, sid := range invoice.ShipmentIDs {
			d.links[sid] = invoice.ID
		}
		d.invoices[invoice.ID] = copyInvoice(*invoice)
		d.numbers[invoice.Number] = invoice.ID
		return nil
	})
}

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	_ = r.s.view(r.inTx, func(d *dataset) error {
		if inv, ok := d.invoices[id]; ok {
			cp := copyInvoice(inv)
			out = &cp
		}
		return nil
	})
	return out, nil
}

func (r *invoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	return r.s.update(r.inTx, func(d *dataset) error {
		current, ok := d.invoices[invoice.ID]
		if !ok {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoice.ID)
		}
		if current.Revision != invoice.Revision {
			return fmt.Errorf("%w: factura %s (revisión %d, esperada %d)", domain.ErrConcurrentUpdate,
				invoice.ID, current.Revision, invoice.Revision)
		}
		invoice.Revision++
		stored := copyInvoice(*invoice)
		// El conjunto de envíos es inmutable tras la emisión.
		stored.ShipmentIDs = current.ShipmentIDs
		d.invoices[invoice.ID] = stored
		if invoice.Status == entity.InvoiceStatusCancelled {
			for _, sid := range current.ShipmentIDs {
				if d.links[sid] == invoice.ID {
					delete(d.links, sid)
				}
			}
		}
		return nil
	})
}

func (r *invoiceRepo) ListByClient(_ context.Context, clientID string, limit, offset int) ([]*entity.Invoice, error) {
	var all []*entity.Invoice
	_ = r.s.view(r.inTx, func(d *dataset) error {
		for _, inv := range d.invoices {
			if inv.ClientID == clientID {
				cp := copyInvoice(inv)
				all = append(all, &cp)
			}
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].IssueDate.Equal(all[j].IssueDate) {
			return all[i].IssueDate.After(all[j].IssueDate)
		}
		return all[i].Number > all[j].Number
	})
	if offset >= len(all) {
		return []*entity.Invoice{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}
