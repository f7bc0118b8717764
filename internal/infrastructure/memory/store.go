// Package memory implementa los puertos de repositorio en memoria.
// Pensado para un solo proceso (desarrollo, demos y tests de casos de uso).
// Las transacciones serializan con un mutex y restauran una copia del estado si fn falla.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

type dataset struct {
	clients      map[string]entity.Client
	offerings    map[string]entity.ServiceOffering
	destinations map[string]entity.Destination
	shipments    map[string]entity.Shipment
	rules        map[string]entity.PricingRule
	invoices     map[string]entity.Invoice
	numbers      map[string]string // número -> invoice id
	links        map[string]string // shipment id -> invoice id activa
	payments     map[string]entity.Payment
	paymentKeys  map[string]string // clave de idempotencia -> payment id
}

func newDataset() *dataset {
	return &dataset{
		clients:      make(map[string]entity.Client),
		offerings:    make(map[string]entity.ServiceOffering),
		destinations: make(map[string]entity.Destination),
		shipments:    make(map[string]entity.Shipment),
		rules:        make(map[string]entity.PricingRule),
		invoices:     make(map[string]entity.Invoice),
		numbers:      make(map[string]string),
		links:        make(map[string]string),
		payments:     make(map[string]entity.Payment),
		paymentKeys:  make(map[string]string),
	}
}

// clone copia los mapas. Los valores se guardan siempre como copias y nunca se mutan en sitio,
// por lo que basta una copia superficial de cada mapa.
func (d *dataset) clone() *dataset {
	return &dataset{
		clients:      cloneMap(d.clients),
		offerings:    cloneMap(d.offerings),
		destinations: cloneMap(d.destinations),
		shipments:    cloneMap(d.shipments),
		rules:        cloneMap(d.rules),
		invoices:     cloneMap(d.invoices),
		numbers:      cloneMap(d.numbers),
		links:        cloneMap(d.links),
		payments:     cloneMap(d.payments),
		paymentKeys:  cloneMap(d.paymentKeys),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.RWMutex
	data *dataset
	// La secuencia vive fuera del dataset: un rollback no la devuelve (igual que una secuencia SQL).
	invoiceSeq atomic.Int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) view(inTx bool, fn func(d *dataset) error) error {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *Store) update(inTx bool, fn func(d *dataset) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

// runTx ejecuta fn con el almacén bloqueado; si fn falla se restaura el estado previo.
func (s *Store) runTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Repositorios sin transacción (cada método toma el lock).

func (s *Store) PricingRules() repository.PricingRuleRepository { return &pricingRuleRepo{s: s} }
func (s *Store) ServiceOfferings() repository.ServiceOfferingRepository {
	return &offeringRepo{s: s}
}
func (s *Store) Destinations() repository.DestinationRepository { return &destinationRepo{s: s} }
func (s *Store) Clients() repository.ClientRepository           { return &clientRepo{s: s} }
func (s *Store) Shipments() repository.ShipmentRepository       { return &shipmentRepo{s: s} }
func (s *Store) Invoices() repository.InvoiceRepository         { return &invoiceRepo{s: s} }
func (s *Store) Payments() repository.PaymentRepository         { return &paymentRepo{s: s} }

// TxRunner ejecuta funciones de facturación y pagos de forma atómica sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner crea el runner transaccional en memoria.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// RunBilling ejecuta fn con repos de envíos, facturas y pagos dentro de la misma "transacción".
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	shipmentRepo repository.ShipmentRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.s.runTx(ctx, func() error {
		return fn(&shipmentRepo{s: r.s, inTx: true}, &invoiceRepo{s: r.s, inTx: true}, &paymentRepo{s: r.s, inTx: true})
	})
}

// RunPayment ejecuta fn con repos de facturas y pagos dentro de la misma "transacción".
func (r *TxRunner) RunPayment(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.s.runTx(ctx, func() error {
		return fn(&invoiceRepo{s: r.s, inTx: true}, &paymentRepo{s: r.s, inTx: true})
	})
}
