package memory

import (
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// Datos maestros que en producción pertenecen a otros subsistemas.
// Los helpers Put* permiten sembrarlos en desarrollo y tests.

func (s *Store) PutClient(c entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.clients[c.ID] = c
}

func (s *Store) PutServiceOffering(o entity.ServiceOffering) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.offerings[o.ID] = o
}

func (s *Store) PutDestination(d entity.Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.destinations[d.ID] = d
}

func (s *Store) PutShipment(sh entity.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.shipments[sh.ID] = copyShipment(sh)
}

// Shipment devuelve una copia del envío (para aserciones).
func (s *Store) Shipment(id string) (entity.Shipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.data.shipments[id]
	return copyShipment(sh), ok
}

// ActiveInvoiceFor devuelve la factura activa que referencia al envío, si existe.
func (s *Store) ActiveInvoiceFor(shipmentID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.data.links[shipmentID]
	return id, ok
}

func copyShipment(sh entity.Shipment) entity.Shipment {
	if sh.Packages != nil {
		pk := make([]entity.Package, len(sh.Packages))
		copy(pk, sh.Packages)
		sh.Packages = pk
	}
	return sh
}

func copyInvoice(inv entity.Invoice) entity.Invoice {
	if inv.ShipmentIDs != nil {
		ids := make([]string, len(inv.ShipmentIDs))
		copy(ids, inv.ShipmentIDs)
		inv.ShipmentIDs = ids
	}
	return inv
}
