// Package money concentra las reglas de redondeo de importes.
package money

import "github.com/shopspring/decimal"

// DefaultPlaces es la precisión de la unidad menor de la moneda (centavos).
const DefaultPlaces int32 = 2

// RatePlaces decimales que conserva una tasa de impuesto (columna tva_rate NUMERIC(6, 4)).
const RatePlaces int32 = 4

// Round redondea a la unidad menor con la regla half-up.
// decimal.Round redondea "half away from zero": para importes no negativos coincide con half-up
// y los negativos quedan simétricos (-0.125 -> -0.13).
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// IsExact indica si d no tiene más decimales que la unidad menor.
func IsExact(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// Sum suma una lista de importes sin redondear.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
