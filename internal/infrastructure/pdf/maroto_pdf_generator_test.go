package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"2380", 2, "2.380,00"},
		{"999.5", 2, "999,50"},
		{"1000000", 0, "1.000.000"},
		{"-1234.567", 2, "-1.234,57"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.in), tt.places), tt.in)
	}
}

func TestGenerateInvoicePDF(t *testing.T) {
	issue := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := appbilling.InvoiceDocument{
		Issuer: "Transportes Andinos",
		Details: dto.InvoiceDetailsResponse{
			InvoiceResponse: dto.InvoiceResponse{
				ID: "inv-1", Number: "FAC-000001", ClientID: "cli-1",
				AmountHT:   decimal.NewFromInt(2000),
				TVARate:    decimal.RequireFromString("0.19"),
				TVAAmount:  decimal.NewFromInt(380),
				TotalTTC:   decimal.NewFromInt(2380),
				AmountPaid: decimal.NewFromInt(1000),
				AmountDue:  decimal.NewFromInt(1380),
				Status:     "partial",
				IssueDate:  issue,
				DueDate:    issue.AddDate(0, 0, 30),
			},
			Client: dto.ClientSummary{ID: "cli-1", Name: "Cliente Uno", TaxID: "900123"},
			Shipments: []dto.InvoiceShipmentLine{
				{ShipmentID: "sh-1", TrackingNumber: "TRK-1", Status: "delivered", Packages: 1, Amount: decimal.NewFromInt(800)},
				{ShipmentID: "sh-2", TrackingNumber: "TRK-2", Status: "delivered", Packages: 2, Amount: decimal.NewFromInt(1200)},
			},
		},
		Payments: []dto.PaymentResponse{
			{ID: "pay-1", InvoiceID: "inv-1", Amount: decimal.NewFromInt(1000), Method: "cash", PaymentDate: issue, Status: "active"},
		},
		GeneratedAt: issue,
	}

	out, err := NewMarotoPDFGenerator(2).GenerateInvoicePDF(context.Background(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
