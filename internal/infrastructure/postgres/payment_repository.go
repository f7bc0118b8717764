package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, invoice_id, client_id, amount, method, payment_date, COALESCE(reference, ''),
	COALESCE(notes, ''), status, COALESCE(idempotency_key, ''), COALESCE(fingerprint, ''), cancelled_at,
	created_at, updated_at`

// PaymentRepo implementación de PaymentRepository. Los pagos nunca se borran.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste el pago.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, client_id, amount, method, payment_date, reference, notes,
			status, idempotency_key, fingerprint, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.InvoiceID, p.ClientID, p.Amount, p.Method, p.PaymentDate, nullIfEmpty(p.Reference),
		nullIfEmpty(p.Notes), p.Status, nullIfEmpty(p.IdempotencyKey), nullIfEmpty(p.Fingerprint),
		p.CancelledAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == constraintPaymentKey {
				return fmt.Errorf("%w: clave de idempotencia %s", domain.ErrDuplicate, p.IdempotencyKey)
			}
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID obtiene un pago por ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetByIdempotencyKey obtiene el pago registrado con la clave indicada.
func (r *PaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key)
}

// ListByInvoice pagos activos y anulados, payment_date descendente.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	if !isUUID(invoiceID) {
		return []*entity.Payment{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE invoice_id = $1
		ORDER BY payment_date DESC, created_at DESC, id DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	out := []*entity.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus persiste la anulación solo si el pago seguía activo.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, p *entity.Payment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE payments SET status = $2, cancelled_at = $3, updated_at = $4
		WHERE id = $1 AND status = 'active'`, p.ID, p.Status, p.CancelledAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		ok, err := exists(ctx, r.q, "payments", p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, p.ID)
		}
		return fmt.Errorf("%w: pago %s ya no está activo", domain.ErrConcurrentUpdate, p.ID)
	}
	return nil
}

func (r *PaymentRepo) getOne(ctx context.Context, query string, arg any) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID, &p.InvoiceID, &p.ClientID, &p.Amount, &p.Method, &p.PaymentDate, &p.Reference, &p.Notes,
		&p.Status, &p.IdempotencyKey, &p.Fingerprint, &p.CancelledAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
