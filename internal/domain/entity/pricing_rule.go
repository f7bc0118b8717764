package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

// Tipos de tarifa.
const (
	RateTypePerWeight = "per_weight" // tarifa base + precio por kg
	RateTypeFlat      = "flat"       // tarifa plana por paquete
)

// PricingRule regla tarifaria por oferta de servicio, zona de destino y tramo de peso.
// El tramo de peso es semiabierto [MinWeight, MaxWeight); MaxWeight nil = sin tope.
// La vigencia es semiabierta [EffectiveFrom, EffectiveTo); EffectiveTo nil = indefinida.
type PricingRule struct {
	ID                string
	ServiceOfferingID string
	ZoneID            string
	MinWeight         decimal.Decimal
	MaxWeight         *decimal.Decimal
	RateType          string
	BaseFee           decimal.Decimal
	PerWeightRate     decimal.Decimal
	EffectiveFrom     time.Time
	EffectiveTo       *time.Time
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate comprueba la coherencia interna de la regla antes de publicarla.
func (r *PricingRule) Validate() error {
	if r.ServiceOfferingID == "" || r.ZoneID == "" {
		return fmt.Errorf("%w: service_offering_id y zone_id son requeridos", domain.ErrValidation)
	}
	if r.MinWeight.IsNegative() {
		return fmt.Errorf("%w: min_weight no puede ser negativo", domain.ErrValidation)
	}
	if r.MaxWeight != nil && !r.MaxWeight.GreaterThan(r.MinWeight) {
		return fmt.Errorf("%w: max_weight debe ser mayor que min_weight", domain.ErrValidation)
	}
	switch r.RateType {
	case RateTypePerWeight, RateTypeFlat:
	default:
		return fmt.Errorf("%w: rate_type desconocido %q", domain.ErrValidation, r.RateType)
	}
	if r.BaseFee.IsNegative() || r.PerWeightRate.IsNegative() {
		return fmt.Errorf("%w: las tarifas no pueden ser negativas", domain.ErrValidation)
	}
	if r.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: effective_from es requerido", domain.ErrValidation)
	}
	if r.EffectiveTo != nil && !r.EffectiveTo.After(r.EffectiveFrom) {
		return fmt.Errorf("%w: effective_to debe ser posterior a effective_from", domain.ErrValidation)
	}
	return nil
}

// ContainsWeight indica si weight cae dentro del tramo [MinWeight, MaxWeight).
func (r *PricingRule) ContainsWeight(weight decimal.Decimal) bool {
	if weight.LessThan(r.MinWeight) {
		return false
	}
	return r.MaxWeight == nil || weight.LessThan(*r.MaxWeight)
}

// EffectiveAt indica si la regla está vigente en el instante at.
func (r *PricingRule) EffectiveAt(at time.Time) bool {
	if at.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || at.Before(*r.EffectiveTo)
}

// Matches aplica todos los filtros del catálogo.
func (r *PricingRule) Matches(serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) bool {
	return r.Active &&
		r.ServiceOfferingID == serviceOfferingID &&
		r.ZoneID == zoneID &&
		r.ContainsWeight(weight) &&
		r.EffectiveAt(at)
}

// Cost calcula el costo sin redondear de un paquete con el peso facturable indicado.
func (r *PricingRule) Cost(weight decimal.Decimal) decimal.Decimal {
	if r.RateType == RateTypeFlat {
		return r.BaseFee
	}
	return r.BaseFee.Add(r.PerWeightRate.Mul(weight))
}

// OverlapsBracket indica si los tramos de peso de ambas reglas se intersectan.
func (r *PricingRule) OverlapsBracket(other *PricingRule) bool {
	// [a1, b1) ∩ [a2, b2) ≠ ∅  <=>  a1 < b2 && a2 < b1
	if other.MaxWeight != nil && !r.MinWeight.LessThan(*other.MaxWeight) {
		return false
	}
	if r.MaxWeight != nil && !other.MinWeight.LessThan(*r.MaxWeight) {
		return false
	}
	return true
}

// Ambiguous indica si other no podría distinguirse de r al resolver una tarifa:
// mismo servicio y zona, tramos que se solapan y la misma fecha de inicio de vigencia.
func (r *PricingRule) Ambiguous(other *PricingRule) bool {
	return r.ServiceOfferingID == other.ServiceOfferingID &&
		r.ZoneID == other.ZoneID &&
		r.EffectiveFrom.Equal(other.EffectiveFrom) &&
		r.OverlapsBracket(other)
}
