package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
)

var issueDay = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store  *memory.Store
	ledger *billing.LedgerUseCase
	now    time.Time
	pdf    *fakePDF
}

// newFixture siembra dos clientes y envíos:
//
//	sh-1 800 entregado (cli-1), sh-2 1200 entregado (cli-1),
//	sh-3 500 en tránsito (cli-1), sh-4 300 entregado (cli-2).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: issueDay, pdf: &fakePDF{}}
	f.store.PutClient(entity.Client{ID: "cli-1", Name: "Transportes Andinos", TaxID: "900123456"})
	f.store.PutClient(entity.Client{ID: "cli-2", Name: "Comercial Caribe", TaxID: "800987654"})
	f.putShipment("sh-1", "cli-1", "800", entity.ShipmentStatusDelivered)
	f.putShipment("sh-2", "cli-1", "1200", entity.ShipmentStatusDelivered)
	f.putShipment("sh-3", "cli-1", "500", entity.ShipmentStatusInTransit)
	f.putShipment("sh-4", "cli-2", "300", entity.ShipmentStatusDelivered)

	f.ledger = f.newLedger(memory.NewTxRunner(f.store))
	return f
}

func (f *fixture) newLedger(tx billing.BillingTxRunner) *billing.LedgerUseCase {
	return billing.NewLedgerUseCase(tx, f.store.Clients(), f.store.Shipments(), f.store.Invoices(),
		f.store.Payments(), f.pdf, billing.DefaultPolicy(), logger.Nop()).
		WithClock(func() time.Time { return f.now })
}

func (f *fixture) putShipment(id, clientID, amount, status string) {
	f.store.PutShipment(entity.Shipment{
		ID: id, TrackingNumber: "TRK-" + id, ClientID: clientID, Status: status,
		TotalAmount: d(amount), Packages: []entity.Package{{Weight: d("3")}},
	})
}

func (f *fixture) invoiced(t *testing.T, id string) bool {
	t.Helper()
	sh, ok := f.store.Shipment(id)
	require.True(t, ok)
	return sh.Invoiced
}

func generateInput(ids ...string) billing.GenerateInvoiceInput {
	return billing.GenerateInvoiceInput{ClientID: "cli-1", ShipmentIDs: ids, DueInDays: 30, TaxRate: d("0.19")}
}

// Escenario: 800 + 1200 al 19% → HT 2000, IVA 380, TTC 2380, pendiente.
func TestGenerate_EscenarioDosEnvios(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.NoError(t, err)

	assert.True(t, d("2000").Equal(inv.AmountHT))
	assert.True(t, d("380").Equal(inv.TVAAmount))
	assert.True(t, d("2380").Equal(inv.TotalTTC))
	assert.True(t, d("2380").Equal(inv.AmountDue))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.Equal(t, entity.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "FAC-000001", inv.Number)
	assert.Equal(t, []string{"sh-1", "sh-2"}, inv.ShipmentIDs)
	assert.Equal(t, issueDay.AddDate(0, 0, 30), inv.DueDate)

	assert.True(t, f.invoiced(t, "sh-1"))
	assert.True(t, f.invoiced(t, "sh-2"))
	owner, ok := f.store.ActiveInvoiceFor("sh-1")
	assert.True(t, ok)
	assert.Equal(t, inv.ID, owner)
}

func TestGenerate_NumerosUnicos(t *testing.T) {
	f := newFixture(t)
	a, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)
	b, err := f.ledger.Generate(context.Background(), generateInput("sh-2"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Number, b.Number)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGenerate_Validaciones(t *testing.T) {
	cases := []struct {
		name string
		in   billing.GenerateInvoiceInput
		want error
	}{
		{"sin envíos", generateInput(), domain.ErrValidation},
		{"envío repetido", generateInput("sh-1", "sh-1"), domain.ErrValidation},
		{"envío inexistente", generateInput("sh-1", "sh-99"), domain.ErrValidation},
		{"envío de otro cliente", generateInput("sh-1", "sh-4"), domain.ErrValidation},
		{"envío no entregado", generateInput("sh-3"), domain.ErrValidation},
		{"plazo negativo", billing.GenerateInvoiceInput{ClientID: "cli-1", ShipmentIDs: []string{"sh-1"}, DueInDays: -1, TaxRate: d("0.19")}, domain.ErrValidation},
		{"tasa fuera de rango", billing.GenerateInvoiceInput{ClientID: "cli-1", ShipmentIDs: []string{"sh-1"}, TaxRate: d("1.2")}, domain.ErrValidation},
		{"tasa con más de cuatro decimales", billing.GenerateInvoiceInput{ClientID: "cli-1", ShipmentIDs: []string{"sh-1"}, TaxRate: d("0.19005")}, domain.ErrValidation},
		{"cliente inexistente", billing.GenerateInvoiceInput{ClientID: "cli-9", ShipmentIDs: []string{"sh-1"}, TaxRate: d("0.19")}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ledger.Generate(context.Background(), tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, f.invoiced(t, "sh-1"), "ningún envío debe quedar marcado")
		})
	}
}

func TestGenerate_EnvioYaFacturado(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)

	_, err = f.ledger.Generate(context.Background(), generateInput("sh-2", "sh-1"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, f.invoiced(t, "sh-2"))
}

func TestGenerate_TodoONada(t *testing.T) {
	f := newFixture(t)
	tx := &failingShipmentTx{inner: memory.NewTxRunner(f.store), failOn: "sh-2"}
	ledger := f.newLedger(tx)

	_, err := ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.Error(t, err)

	assert.False(t, f.invoiced(t, "sh-1"), "la marca de sh-1 debe revertirse")
	assert.False(t, f.invoiced(t, "sh-2"))
	list, err := f.ledger.ListByClient(context.Background(), dto.InvoiceListRequest{ClientID: "cli-1"})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestGenerate_TasaCongeladaAlEmitir(t *testing.T) {
	f := newFixture(t)
	first, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)

	in := generateInput("sh-2")
	in.TaxRate = d("0.21")
	second, err := f.ledger.Generate(context.Background(), in)
	require.NoError(t, err)

	got, err := f.ledger.GetDetails(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, d("0.19").Equal(got.TVARate))
	assert.True(t, d("152").Equal(got.TVAAmount))
	assert.True(t, d("252").Equal(second.TVAAmount))
}

func TestCancel_LiberaEnviosYRegeneraMismoHT(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.NoError(t, err)

	cancelled, err := f.ledger.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, []string{"sh-1", "sh-2"}, cancelled.ShipmentIDs, "los envíos de la factura anulada no cambian")
	assert.False(t, f.invoiced(t, "sh-1"))
	assert.False(t, f.invoiced(t, "sh-2"))

	again, err := f.ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.NoError(t, err)
	assert.True(t, inv.AmountHT.Equal(again.AmountHT))
	assert.NotEqual(t, inv.Number, again.Number)
}

func TestCancel_Conflictos(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.NoError(t, err)

	_, err = f.ledger.Cancel(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Pago de 1000 aplicado directamente sobre el repositorio.
	stored, err := f.store.Invoices().GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.NoError(t, stored.ApplyPayment(d("1000"), issueDay))
	require.NoError(t, f.store.Invoices().Update(context.Background(), stored))

	_, err = f.ledger.Cancel(context.Background(), inv.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.True(t, f.invoiced(t, "sh-1"), "la anulación rechazada no libera envíos")

	stored, _ = f.store.Invoices().GetByID(context.Background(), inv.ID)
	require.NoError(t, stored.RevertPayment(d("1000"), issueDay))
	require.NoError(t, f.store.Invoices().Update(context.Background(), stored))

	_, err = f.ledger.Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	_, err = f.ledger.Cancel(context.Background(), inv.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "anular dos veces es conflicto")
}

func TestCancel_ReintentaRevisionDesactualizada(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)

	tx := &staleInvoiceTx{inner: memory.NewTxRunner(f.store), failures: 2}
	_, err = f.newLedger(tx).Cancel(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, tx.attempts)
	assert.False(t, f.invoiced(t, "sh-1"))

	inv2, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)
	tx = &staleInvoiceTx{inner: memory.NewTxRunner(f.store), failures: 100}
	_, err = f.newLedger(tx).Cancel(context.Background(), inv2.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, f.invoiced(t, "sh-1"))
}

func TestGetDetails_VencidaEsEstadoDerivado(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1", "sh-2"))
	require.NoError(t, err)

	got, err := f.ledger.GetDetails(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, got.Status)
	assert.Equal(t, "Transportes Andinos", got.Client.Name)
	require.Len(t, got.Shipments, 2)
	assert.Equal(t, "TRK-sh-1", got.Shipments[0].TrackingNumber)
	assert.True(t, d("1200").Equal(got.Shipments[1].Amount))

	f.now = issueDay.AddDate(0, 0, 31)
	got, err = f.ledger.GetDetails(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusOverdue, got.Status)
	assert.Equal(t, entity.InvoiceStatusPending, got.PersistedStatus, "overdue nunca se persiste")

	_, err = f.ledger.GetDetails(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByClient_Paginado(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"sh-1", "sh-2"} {
		_, err := f.ledger.Generate(context.Background(), generateInput(id))
		require.NoError(t, err)
		f.now = f.now.Add(time.Hour)
	}

	page, err := f.ledger.ListByClient(context.Background(), dto.InvoiceListRequest{ClientID: "cli-1", Page: dto.PageRequest{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "FAC-000002", page.Items[0].Number, "más reciente primero")

	page, err = f.ledger.ListByClient(context.Background(), dto.InvoiceListRequest{ClientID: "cli-1", Page: dto.PageRequest{Offset: 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 20, page.Page.Limit)

	_, err = f.ledger.ListByClient(context.Background(), dto.InvoiceListRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDownloadPDF(t *testing.T) {
	f := newFixture(t)
	inv, err := f.ledger.Generate(context.Background(), generateInput("sh-1"))
	require.NoError(t, err)

	data, name, err := f.ledger.DownloadPDF(context.Background(), "Envíos Express", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "factura_FAC-000001.pdf", name)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "Envíos Express", f.pdf.last.Issuer)
	assert.Equal(t, inv.Number, f.pdf.last.Details.Number)

	_, _, err = f.ledger.DownloadPDF(context.Background(), "Envíos Express", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Dobles de prueba ──────────────────────────────────────────────────────────

type fakePDF struct {
	last billing.InvoiceDocument
}

func (p *fakePDF) GenerateInvoicePDF(_ context.Context, doc billing.InvoiceDocument) ([]byte, error) {
	p.last = doc
	return []byte("%PDF"), nil
}

// failingShipmentTx falla al marcar el envío failOn.
type failingShipmentTx struct {
	inner  *memory.TxRunner
	failOn string
}

func (tx *failingShipmentTx) RunBilling(ctx context.Context, fn func(repository.ShipmentRepository, repository.InvoiceRepository, repository.PaymentRepository) error) error {
	return tx.inner.RunBilling(ctx, func(s repository.ShipmentRepository, i repository.InvoiceRepository, p repository.PaymentRepository) error {
		return fn(&failingShipments{ShipmentRepository: s, failOn: tx.failOn}, i, p)
	})
}

type failingShipments struct {
	repository.ShipmentRepository
	failOn string
}

func (s *failingShipments) SetInvoiced(ctx context.Context, id string, invoiced bool) error {
	if id == s.failOn {
		return errors.New("falla de almacenamiento simulada")
	}
	return s.ShipmentRepository.SetInvoiced(ctx, id, invoiced)
}

// staleInvoiceTx simula que otra operación escribió la factura en los primeros `failures` intentos.
type staleInvoiceTx struct {
	inner    *memory.TxRunner
	failures int
	attempts int
}

func (tx *staleInvoiceTx) RunBilling(ctx context.Context, fn func(repository.ShipmentRepository, repository.InvoiceRepository, repository.PaymentRepository) error) error {
	tx.attempts++
	stale := tx.attempts <= tx.failures
	return tx.inner.RunBilling(ctx, func(s repository.ShipmentRepository, i repository.InvoiceRepository, p repository.PaymentRepository) error {
		return fn(s, &staleInvoices{InvoiceRepository: i, stale: stale}, p)
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
