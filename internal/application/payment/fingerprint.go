package payment

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// fingerprint resume el payload de un pago para comparar reintentos con la misma clave de idempotencia.
// Solo entran los campos tal como los envió el llamador (sin valores por defecto).
func fingerprint(in RecordPaymentInput) string {
	date := ""
	if !in.PaymentDate.IsZero() {
		date = in.PaymentDate.UTC().Format(time.RFC3339Nano)
	}
	payload := strings.Join([]string{
		in.InvoiceID,
		in.Amount.String(),
		in.Method,
		date,
		in.Reference,
		in.Notes,
	}, "\x1f")
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
