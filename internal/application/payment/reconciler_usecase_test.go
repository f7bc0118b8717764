package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/payment"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
)

var today = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store      *memory.Store
	ledger     *billing.LedgerUseCase
	reconciler *payment.ReconcilerUseCase
	invoiceID  string
}

// newFixture emite la factura del escenario base: 800 + 1200 al 19% = 2380 TTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutClient(entity.Client{ID: "cli-1", Name: "Transportes Andinos"})
	for id, amount := range map[string]string{"sh-1": "800", "sh-2": "1200"} {
		store.PutShipment(entity.Shipment{ID: id, ClientID: "cli-1", Status: entity.ShipmentStatusDelivered, TotalAmount: d(amount)})
	}
	clock := func() time.Time { return today }
	tx := memory.NewTxRunner(store)
	ledger := billing.NewLedgerUseCase(tx, store.Clients(), store.Shipments(), store.Invoices(), store.Payments(),
		nil, billing.DefaultPolicy(), logger.Nop()).WithClock(clock)
	inv, err := ledger.Generate(context.Background(), billing.GenerateInvoiceInput{
		ClientID: "cli-1", ShipmentIDs: []string{"sh-1", "sh-2"}, DueInDays: 30, TaxRate: d("0.19"),
	})
	require.NoError(t, err)
	require.True(t, d("2380").Equal(inv.TotalTTC))

	f := &fixture{store: store, ledger: ledger, invoiceID: inv.ID}
	f.reconciler = f.newReconciler(tx)
	return f
}

func (f *fixture) newReconciler(tx payment.PaymentTxRunner) *payment.ReconcilerUseCase {
	return payment.NewReconcilerUseCase(tx, f.store.Invoices(), f.store.Payments(), payment.DefaultPolicy(), logger.Nop()).
		WithClock(func() time.Time { return today })
}

func (f *fixture) pay(amount string) payment.RecordPaymentInput {
	return payment.RecordPaymentInput{InvoiceID: f.invoiceID, Amount: d(amount), Method: entity.PaymentMethodBankTransfer}
}

func (f *fixture) invoice(t *testing.T) *entity.Invoice {
	t.Helper()
	inv, err := f.store.Invoices().GetByID(context.Background(), f.invoiceID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	require.NoError(t, inv.CheckBalance())
	return inv
}

// Escenario: pagar 2380 salda la factura; cualquier pago adicional es de validación;
// anular el pago la devuelve a pendiente y el registro queda anulado.
func TestEscenario_PagoTotalYAnulacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reconciler.RecordPayment(ctx, f.pay("2380"))
	require.NoError(t, err)
	assert.True(t, d("2380").Equal(res.Invoice.AmountPaid))
	assert.True(t, res.Invoice.AmountDue.IsZero())
	assert.Equal(t, entity.InvoiceStatusPaid, res.Invoice.Status)
	assert.Equal(t, entity.PaymentStatusActive, res.Payment.Status)
	assert.Equal(t, "cli-1", res.Payment.ClientID)

	_, err = f.reconciler.RecordPayment(ctx, f.pay("0.01"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	cancelled, err := f.reconciler.CancelPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Invoice.AmountPaid.IsZero())
	assert.True(t, d("2380").Equal(cancelled.Invoice.AmountDue))
	assert.Equal(t, entity.InvoiceStatusPending, cancelled.Invoice.Status)
	assert.Equal(t, entity.PaymentStatusCancelled, cancelled.Payment.Status)

	history, err := f.reconciler.GetInvoicePayments(ctx, f.invoiceID)
	require.NoError(t, err)
	require.Len(t, history, 1, "el pago anulado sigue en el historial")
	assert.Equal(t, entity.PaymentStatusCancelled, history[0].Status)
	assert.NotNil(t, history[0].CancelledAt)
}

func TestRecordPayment_ParcialYLuegoPagada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reconciler.RecordPayment(ctx, f.pay("1000"))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPartial, res.Invoice.Status)
	assert.True(t, d("1380").Equal(res.Invoice.AmountDue))
	assert.Equal(t, int64(1), res.Invoice.Revision)

	res, err = f.reconciler.RecordPayment(ctx, f.pay("1380"))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, res.Invoice.Status)
	assert.Equal(t, int64(2), res.Invoice.Revision)
}

func TestRecordPayment_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-10", "10.001"} {
		_, err := f.reconciler.RecordPayment(ctx, f.pay(amount))
		assert.ErrorIs(t, err, domain.ErrValidation, "monto %s", amount)
	}

	in := f.pay("10")
	in.Method = "bitcoin"
	_, err := f.reconciler.RecordPayment(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.reconciler.RecordPayment(ctx, f.pay("2380.01"))
	assert.ErrorIs(t, err, domain.ErrValidation, "el sobrepago se rechaza")

	in = f.pay("10")
	in.InvoiceID = "nope"
	_, err = f.reconciler.RecordPayment(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inv := f.invoice(t)
	assert.True(t, inv.AmountPaid.IsZero(), "ningún intento fallido modifica la factura")
	assert.Equal(t, int64(0), inv.Revision)
}

func TestRecordPayment_FacturaAnuladaEsConflicto(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Cancel(context.Background(), f.invoiceID)
	require.NoError(t, err)

	_, err = f.reconciler.RecordPayment(context.Background(), f.pay("100"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Escenario: con 1000 pagados la factura no se puede anular.
func TestCancelInvoice_ConPagosEsConflicto(t *testing.T) {
	f := newFixture(t)
	_, err := f.reconciler.RecordPayment(context.Background(), f.pay("1000"))
	require.NoError(t, err)

	_, err = f.ledger.Cancel(context.Background(), f.invoiceID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, entity.InvoiceStatusPartial, f.invoice(t).Status)
}

func TestCancelPayment_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.CancelPayment(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.reconciler.RecordPayment(ctx, f.pay("500"))
	require.NoError(t, err)
	_, err = f.reconciler.CancelPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	_, err = f.reconciler.CancelPayment(ctx, res.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.invoice(t).AmountPaid.IsZero())
}

func TestCancelPayment_ParcialVuelveAParcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.reconciler.RecordPayment(ctx, f.pay("1000"))
	require.NoError(t, err)
	_, err = f.reconciler.RecordPayment(ctx, f.pay("1380"))
	require.NoError(t, err)

	res, err := f.reconciler.CancelPayment(ctx, first.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPartial, res.Invoice.Status)
	assert.True(t, d("1380").Equal(res.Invoice.AmountPaid))
	assert.True(t, d("1000").Equal(res.Invoice.AmountDue))
}

func TestGetInvoicePayments_OrdenPorFechaDescendente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, day := range []int{3, 1, 2} {
		in := f.pay("100")
		in.PaymentDate = today.AddDate(0, 0, -day)
		in.Reference = string(rune('A' + i))
		_, err := f.reconciler.RecordPayment(ctx, in)
		require.NoError(t, err)
	}
	list, err := f.reconciler.GetInvoicePayments(ctx, f.invoiceID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{list[0].Reference, list[1].Reference, list[2].Reference})

	_, err = f.reconciler.GetInvoicePayments(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// N pagos concurrentes cuya suma es el saldo dejan la factura exactamente pagada.
func TestRecordPayment_ConcurrentesSaldanExacto(t *testing.T) {
	f := newFixture(t)
	const n = 20 // 20 × 119 = 2380

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reconciler.RecordPayment(context.Background(), f.pay("119"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	inv := f.invoice(t)
	assert.True(t, inv.AmountDue.IsZero())
	assert.True(t, d("2380").Equal(inv.AmountPaid))
	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, int64(n), inv.Revision)

	list, err := f.reconciler.GetInvoicePayments(context.Background(), f.invoiceID)
	require.NoError(t, err)
	assert.Len(t, list, n)
}

// Con más pagos que saldo, solo entran los que caben; el saldo nunca queda negativo.
func TestRecordPayment_ConcurrentesNoSobrepagan(t *testing.T) {
	f := newFixture(t)
	const n = 25

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reconciler.RecordPayment(context.Background(), f.pay("119"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrValidation) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, ok)
	assert.Equal(t, 5, rejected)
	inv := f.invoice(t)
	assert.True(t, inv.AmountDue.IsZero())
}

func TestRecordPayment_Idempotencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.pay("500")
	in.IdempotencyKey = "pago-001"
	first, err := f.reconciler.RecordPayment(ctx, in)
	require.NoError(t, err)
	assert.False(t, first.Replay)

	again, err := f.reconciler.RecordPayment(ctx, in)
	require.NoError(t, err)
	assert.True(t, again.Replay)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.True(t, d("500").Equal(f.invoice(t).AmountPaid), "el reintento no vuelve a cobrar")

	other := in
	other.Amount = d("600")
	_, err = f.reconciler.RecordPayment(ctx, other)
	assert.ErrorIs(t, err, domain.ErrConflict)

	list, err := f.reconciler.GetInvoicePayments(ctx, f.invoiceID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordPayment_ReintentaYAgota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := &staleInvoiceTx{inner: memory.NewTxRunner(f.store), failures: 2}
	res, err := f.newReconciler(tx).RecordPayment(ctx, f.pay("100"))
	require.NoError(t, err)
	assert.Equal(t, 3, tx.attempts)
	assert.True(t, d("100").Equal(res.Invoice.AmountPaid))

	tx = &staleInvoiceTx{inner: memory.NewTxRunner(f.store), failures: 100}
	_, err = f.newReconciler(tx).RecordPayment(ctx, f.pay("100"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, payment.DefaultPolicy().MaxRetries, tx.attempts)

	assert.True(t, d("100").Equal(f.invoice(t).AmountPaid), "los intentos agotados no dejan efectos")
	list, _ := f.reconciler.GetInvoicePayments(ctx, f.invoiceID)
	assert.Len(t, list, 1)
}

// staleInvoiceTx simula que otra operación escribió la factura en los primeros `failures` intentos.
type staleInvoiceTx struct {
	inner    *memory.TxRunner
	failures int
	attempts int
}

func (tx *staleInvoiceTx) RunPayment(ctx context.Context, fn func(repository.InvoiceRepository, repository.PaymentRepository) error) error {
	tx.attempts++
	stale := tx.attempts <= tx.failures
	return tx.inner.RunPayment(ctx, func(i repository.InvoiceRepository, p repository.PaymentRepository) error {
		return fn(&staleInvoices{InvoiceRepository: i, stale: stale}, p)
	})
}

type staleInvoices struct {
	repository.InvoiceRepository
	stale bool
}

func (r *staleInvoices) Update(ctx context.Context, inv *entity.Invoice) error {
	if r.stale {
		return domain.ErrConcurrentUpdate
	}
	return r.InvoiceRepository.Update(ctx, inv)
}

// Dos peticiones con la misma clave: la segunda pasa la búsqueda inicial antes de que la primera confirme.
func TestRecordPayment_MismaClaveEnCarreraDevuelveOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.pay("2380")
	in.IdempotencyKey = "K-1"

	var firstID string
	tx := &interleavedTx{inner: memory.NewTxRunner(f.store), before: func() {
		res, err := f.reconciler.RecordPayment(ctx, in)
		require.NoError(t, err)
		firstID = res.Payment.ID
	}}

	res, err := f.newReconciler(tx).RecordPayment(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Replay)
	assert.Equal(t, firstID, res.Payment.ID)

	inv := f.invoice(t)
	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
	assert.True(t, d("2380").Equal(inv.AmountPaid), "el pago repetido no se aplica dos veces")
	list, err := f.reconciler.GetInvoicePayments(ctx, f.invoiceID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// interleavedTx ejecuta before una sola vez, justo antes de abrir la primera transacción.
type interleavedTx struct {
	inner  *memory.TxRunner
	before func()
	done   bool
}

func (tx *interleavedTx) RunPayment(ctx context.Context, fn func(repository.InvoiceRepository, repository.PaymentRepository) error) error {
	if !tx.done {
		tx.done = true
		tx.before()
	}
	return tx.inner.RunPayment(ctx, fn)
}
