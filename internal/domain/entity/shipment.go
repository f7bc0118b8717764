package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de envío (propiedad del subsistema de operaciones; facturación solo los lee).
const (
	ShipmentStatusPending   = "pending"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusReturned  = "returned"
	ShipmentStatusCancelled = "cancelled"
)

// Package bulto de un envío. Peso en kg, dimensiones en cm.
type Package struct {
	Weight decimal.Decimal
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// Shipment envío de un cliente. TotalAmount es autoritativo una vez entregado;
// facturación nunca lo recalcula y solo modifica Invoiced.
type Shipment struct {
	ID                string
	TrackingNumber    string
	ClientID          string
	ServiceOfferingID string
	DestinationID     string
	Packages          []Package
	TotalAmount       decimal.Decimal
	Status            string
	Invoiced          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsInvoiceable indica si el envío puede incluirse en una factura nueva.
func (s *Shipment) IsInvoiceable(invoiceableStatuses []string) bool {
	if s.Invoiced {
		return false
	}
	for _, st := range invoiceableStatuses {
		if s.Status == st {
			return true
		}
	}
	return false
}
