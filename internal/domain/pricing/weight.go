// Package pricing contiene las reglas de peso facturable (servicio de dominio).
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// DefaultVolumetricDivisor divisor volumétrico estándar de transportistas (cm³ por kg).
const DefaultVolumetricDivisor = 5000

// VolumetricWeight = Largo × Ancho × Alto (cm) / divisor.
// Sin dimensiones completas el peso volumétrico es cero y manda el peso declarado.
func VolumetricWeight(p entity.Package, divisor decimal.Decimal) decimal.Decimal {
	if !divisor.IsPositive() || !p.Length.IsPositive() || !p.Width.IsPositive() || !p.Height.IsPositive() {
		return decimal.Zero
	}
	return p.Length.Mul(p.Width).Mul(p.Height).Div(divisor)
}

// BillableWeight = max(peso declarado, peso volumétrico). El declarado es siempre cota inferior.
func BillableWeight(p entity.Package, divisor decimal.Decimal) decimal.Decimal {
	return decimal.Max(p.Weight, VolumetricWeight(p, divisor))
}
