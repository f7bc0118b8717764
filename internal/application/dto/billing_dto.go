package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
// DueInDays es opcional; si va vacío se usa el plazo configurado.
type CreateInvoiceRequest struct {
	ClientID    string   `json:"client_id" validate:"required"`
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=1,dive,required"`
	DueInDays   *int     `json:"due_in_days,omitempty" validate:"omitempty,min=0,max=365"`
	Notes       string   `json:"notes,omitempty" validate:"max=1000"`
}

// InvoiceResponse cabecera de factura en respuestas. Status es el estado de presentación.
type InvoiceResponse struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	ClientID    string          `json:"client_id"`
	ShipmentIDs []string        `json:"shipment_ids"`
	AmountHT    decimal.Decimal `json:"amount_ht"`
	TVARate     decimal.Decimal `json:"tva_rate"`
	TVAAmount   decimal.Decimal `json:"tva_amount"`
	TotalTTC    decimal.Decimal `json:"total_ttc"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Status      string          `json:"status"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
	Notes       string          `json:"notes,omitempty"`
	Revision    int64           `json:"revision"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

// ClientSummary datos del cliente resueltos para presentación.
type ClientSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceShipmentLine envío incluido en la factura.
type InvoiceShipmentLine struct {
	ShipmentID     string          `json:"shipment_id"`
	TrackingNumber string          `json:"tracking_number"`
	Status         string          `json:"status"`
	Packages       int             `json:"packages"`
	Amount         decimal.Decimal `json:"amount"`
}

// InvoiceDetailsResponse proyección de solo lectura para GET /api/invoices/:id.
type InvoiceDetailsResponse struct {
	InvoiceResponse
	PersistedStatus string                `json:"persisted_status"`
	Client          ClientSummary         `json:"client"`
	Shipments       []InvoiceShipmentLine `json:"shipments"`
}

// InvoiceListRequest filtros de GET /api/invoices.
type InvoiceListRequest struct {
	ClientID string      `query:"client_id" validate:"required"`
	Page     PageRequest `query:"-"`
}

// InvoiceListResponse página de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
