package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, number, client_id, amount_ht, tva_rate, tva_amount, total_ttc, amount_paid, amount_due,
	status, issue_date, due_date, COALESCE(notes, ''), revision, cancelled_at, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// NextNumber toma el siguiente valor de invoice_number_seq. Las secuencias no participan del rollback:
// una emisión abortada deja un hueco, nunca un duplicado.
func (r *InvoiceRepo) NextNumber(ctx context.Context, prefix string, _ time.Time) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

// Create persiste la cabecera y los vínculos con los envíos.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (id, number, client_id, amount_ht, tva_rate, tva_amount, total_ttc, amount_paid,
			amount_due, status, issue_date, due_date, notes, revision, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.Number, invoice.ClientID, invoice.AmountHT, invoice.TVARate, invoice.TVAAmount,
		invoice.TotalTTC, invoice.AmountPaid, invoice.AmountDue, invoice.Status, invoice.IssueDate,
		invoice.DueDate, nullIfEmpty(invoice.Notes), invoice.Revision, invoice.CancelledAt,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintInvoiceNumber {
			return fmt.Errorf("%w: número de factura %s", domain.ErrDuplicate, invoice.Number)
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i, shipmentID := range invoice.ShipmentIDs {
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_shipments (invoice_id, shipment_id, position)
			VALUES ($1, $2, $3)`, invoice.ID, shipmentID, i)
		if err != nil {
			if isUniqueViolation(err) && violatedConstraint(err) == constraintActiveShipmentLink {
				return fmt.Errorf("%w: el envío %s ya pertenece a otra factura activa", domain.ErrConflict, shipmentID)
			}
			return fmt.Errorf("insert invoice shipment: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la factura con sus envíos en el orden de emisión.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if !isUUID(id) {
		return nil, nil
	}
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := r.loadShipmentIDs(ctx, []*entity.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// Update escribe saldos y estado condicionado a la revisión leída (control optimista).
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET amount_paid  = $2,
		    amount_due   = $3,
		    status       = $4,
		    cancelled_at = $5,
		    updated_at   = $6,
		    revision     = revision + 1
		WHERE id = $1 AND revision = $7`
	tag, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.AmountPaid, invoice.AmountDue, invoice.Status, invoice.CancelledAt,
		invoice.UpdatedAt, invoice.Revision,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		ok, err := exists(ctx, r.q, "invoices", invoice.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoice.ID)
		}
		return fmt.Errorf("%w: factura %s (revisión %d)", domain.ErrConcurrentUpdate, invoice.ID, invoice.Revision)
	}
	invoice.Revision++

	if invoice.Status == entity.InvoiceStatusCancelled {
		_, err := r.q.Exec(ctx, `
			UPDATE invoice_shipments SET released_at = $2
			WHERE invoice_id = $1 AND released_at IS NULL`, invoice.ID, invoice.UpdatedAt)
		if err != nil {
			return fmt.Errorf("release invoice shipments: %w", err)
		}
	}
	return nil
}

// ListByClient facturas del cliente, más recientes primero.
func (r *InvoiceRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Invoice, error) {
	if !isUUID(clientID) {
		return []*entity.Invoice{}, nil
	}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices WHERE client_id = $1
		ORDER BY issue_date DESC, number DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := []*entity.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	if err := r.loadShipmentIDs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadShipmentIDs completa ShipmentIDs con una sola consulta.
func (r *InvoiceRepo) loadShipmentIDs(ctx context.Context, invoices []*entity.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]string, 0, len(invoices))
	byID := make(map[string]*entity.Invoice, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
	}
	rows, err := r.q.Query(ctx, `
		SELECT invoice_id, shipment_id FROM invoice_shipments
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, position`, ids)
	if err != nil {
		return fmt.Errorf("query invoice shipments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var invoiceID, shipmentID string
		if err := rows.Scan(&invoiceID, &shipmentID); err != nil {
			return fmt.Errorf("scan invoice shipment: %w", err)
		}
		if inv, ok := byID[invoiceID]; ok {
			inv.ShipmentIDs = append(inv.ShipmentIDs, shipmentID)
		}
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.ClientID, &inv.AmountHT, &inv.TVARate, &inv.TVAAmount, &inv.TotalTTC,
		&inv.AmountPaid, &inv.AmountDue, &inv.Status, &inv.IssueDate, &inv.DueDate, &inv.Notes,
		&inv.Revision, &inv.CancelledAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
