package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/payment"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner = (*TxRunner)(nil)
	_ payment.PaymentTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// run inicia una transacción READ COMMITTED, ejecuta fn y hace Commit o Rollback.
// La consistencia de saldos la da la revisión de la factura, no el nivel de aislamiento.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunBilling inicia una transacción con repos de envíos, facturas y pagos (emisión y anulación).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	shipmentRepo repository.ShipmentRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(newLockingShipmentRepository(tx), NewInvoiceRepository(tx), NewPaymentRepository(tx))
	})
}

// RunPayment inicia una transacción con repos de facturas y pagos (registro y anulación de pagos).
func (r *TxRunner) RunPayment(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewInvoiceRepository(tx), NewPaymentRepository(tx))
	})
}
