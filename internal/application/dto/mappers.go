package dto

import (
	"time"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// NewInvoiceResponse proyecta la factura; Status es el estado de presentación en now.
func NewInvoiceResponse(inv *entity.Invoice, now time.Time) InvoiceResponse {
	ids := make([]string, len(inv.ShipmentIDs))
	copy(ids, inv.ShipmentIDs)
	return InvoiceResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		ClientID:    inv.ClientID,
		ShipmentIDs: ids,
		AmountHT:    inv.AmountHT,
		TVARate:     inv.TVARate,
		TVAAmount:   inv.TVAAmount,
		TotalTTC:    inv.TotalTTC,
		AmountPaid:  inv.AmountPaid,
		AmountDue:   inv.AmountDue,
		Status:      inv.DisplayStatus(now),
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Notes:       inv.Notes,
		Revision:    inv.Revision,
		CancelledAt: inv.CancelledAt,
	}
}

// NewPaymentResponse proyecta un pago.
func NewPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		ClientID:    p.ClientID,
		Amount:      p.Amount,
		Method:      p.Method,
		PaymentDate: p.PaymentDate,
		Reference:   p.Reference,
		Notes:       p.Notes,
		Status:      p.Status,
		CancelledAt: p.CancelledAt,
		CreatedAt:   p.CreatedAt,
	}
}
