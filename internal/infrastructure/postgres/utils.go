package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraints con significado de dominio (ver migrations/001_billing.sql).
const (
	constraintInvoiceNumber      = "invoices_number_key"
	constraintActiveShipmentLink = "ux_invoice_shipments_active"
	constraintPaymentKey         = "ux_payments_idempotency_key"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// violatedConstraint devuelve el nombre del constraint violado, si el error viene de PostgreSQL.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// isUUID indica si id puede compararse contra una columna UUID. Un id mal formado no puede
// existir, así que los repos lo tratan como ausente en lugar de dejar que PostgreSQL falle con 22P02.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// onlyUUIDs descarta los ids mal formados conservando el orden.
func onlyUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// exists comprueba si hay una fila con ese id; se usa para distinguir "no existe" de "cambió"
// cuando un UPDATE condicional no afecta filas.
func exists(ctx context.Context, q Querier, table, id string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return ok, nil
}
