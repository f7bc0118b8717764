package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

type paymentRepo struct {
	s    *Store
	inTx bool
}

func (r *paymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	return r.s.update(r.inTx, func(d *dataset) error {
		if _, exists := d.payments[payment.ID]; exists {
			return fmt.Errorf("%w: pago %s", domain.ErrDuplicate, payment.ID)
		}
		if payment.IdempotencyKey != "" {
			if _, exists := d.paymentKeys[payment.IdempotencyKey]; exists {
				return fmt.Errorf("%w: clave de idempotencia %s", domain.ErrDuplicate, payment.IdempotencyKey)
			}
			d.paymentKeys[payment.IdempotencyKey] = payment.ID
		}
		d.payments[payment.ID] = *payment
		return nil
	})
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	var out *entity.Payment
	_ = r.s.view(r.inTx, func(d *dataset) error {
		if p, ok := d.payments[id]; ok {
			out = &p
		}
		return nil
	})
	return out, nil
}

func (r *paymentRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	var out *entity.Payment
	_ = r.s.view(r.inTx, func(d *dataset) error {
		if id, ok := d.paymentKeys[key]; ok {
			p := d.payments[id]
			out = &p
		}
		return nil
	})
	return out, nil
}

func (r *paymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Payment, error) {
	out := []*entity.Payment{}
	_ = r.s.view(r.inTx, func(d *dataset) error {
		for _, p := range d.payments {
			if p.InvoiceID == invoiceID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *paymentRepo) UpdateStatus(_ context.Context, payment *entity.Payment) error {
	return r.s.update(r.inTx, func(d *dataset) error {
		current, ok := d.payments[payment.ID]
		if !ok {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, payment.ID)
		}
		if current.Status != entity.PaymentStatusActive {
			return fmt.Errorf("%w: pago %s ya no está activo", domain.ErrConcurrentUpdate, payment.ID)
		}
		current.Status = payment.Status
		current.CancelledAt = payment.CancelledAt
		current.UpdatedAt = payment.UpdatedAt
		d.payments[payment.ID] = current
		return nil
	})
}
