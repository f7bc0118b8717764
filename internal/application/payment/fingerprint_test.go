package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint_NormalizaMonto(t *testing.T) {
	a := RecordPaymentInput{InvoiceID: "inv-1", Amount: decimal.RequireFromString("100.00"), Method: "cash"}
	b := a
	b.Amount = decimal.RequireFromString("100")
	assert.Equal(t, fingerprint(a), fingerprint(b))
	assert.Len(t, fingerprint(a), 64)
}

func TestFingerprint_CambiaConElPayload(t *testing.T) {
	base := RecordPaymentInput{InvoiceID: "inv-1", Amount: decimal.NewFromInt(100), Method: "cash"}

	other := base
	other.Method = "card"
	assert.NotEqual(t, fingerprint(base), fingerprint(other))

	other = base
	other.PaymentDate = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, fingerprint(base), fingerprint(other))

	other = base
	other.Reference = "TRX-9"
	assert.NotEqual(t, fingerprint(base), fingerprint(other))
}
