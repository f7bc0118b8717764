package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotePackageRequest bulto a cotizar. Peso en kg, dimensiones en cm (opcionales).
type QuotePackageRequest struct {
	Weight decimal.Decimal `json:"weight"`
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

// QuoteRequest body para POST /api/pricing/quote.
// At permite cotizar en un instante distinto de ahora (p. ej. recalcular un envío ya despachado).
type QuoteRequest struct {
	ServiceOfferingID string                `json:"service_offering_id" validate:"required"`
	DestinationID     string                `json:"destination_id" validate:"required"`
	Packages          []QuotePackageRequest `json:"packages" validate:"required,min=1"`
	At                *time.Time            `json:"at,omitempty"`
}

// PackageQuote desglose por bulto.
type PackageQuote struct {
	Index            int             `json:"index"`
	RuleID           string          `json:"rule_id"`
	DeclaredWeight   decimal.Decimal `json:"declared_weight"`
	VolumetricWeight decimal.Decimal `json:"volumetric_weight"`
	BillableWeight   decimal.Decimal `json:"billable_weight"`
	Cost             decimal.Decimal `json:"cost"` // sin redondear
}

// QuoteResponse total redondeado una sola vez más el desglose.
type QuoteResponse struct {
	ServiceOfferingID string          `json:"service_offering_id"`
	DestinationID     string          `json:"destination_id"`
	ZoneID            string          `json:"zone_id"`
	At                time.Time       `json:"at"`
	Packages          []PackageQuote  `json:"packages"`
	Total             decimal.Decimal `json:"total"`
}

// CreatePricingRuleRequest body para POST /api/pricing/rules.
type CreatePricingRuleRequest struct {
	ServiceOfferingID string           `json:"service_offering_id" validate:"required"`
	ZoneID            string           `json:"zone_id" validate:"required"`
	MinWeight         decimal.Decimal  `json:"min_weight"`
	MaxWeight         *decimal.Decimal `json:"max_weight,omitempty"`
	RateType          string           `json:"rate_type" validate:"required,oneof=per_weight flat"`
	BaseFee           decimal.Decimal  `json:"base_fee"`
	PerWeightRate     decimal.Decimal  `json:"per_weight_rate"`
	EffectiveFrom     time.Time        `json:"effective_from"`
	EffectiveTo       *time.Time       `json:"effective_to,omitempty"`
}

// PricingRuleResponse regla tarifaria en respuestas.
type PricingRuleResponse struct {
	ID                string           `json:"id"`
	ServiceOfferingID string           `json:"service_offering_id"`
	ZoneID            string           `json:"zone_id"`
	MinWeight         decimal.Decimal  `json:"min_weight"`
	MaxWeight         *decimal.Decimal `json:"max_weight,omitempty"`
	RateType          string           `json:"rate_type"`
	BaseFee           decimal.Decimal  `json:"base_fee"`
	PerWeightRate     decimal.Decimal  `json:"per_weight_rate"`
	EffectiveFrom     time.Time        `json:"effective_from"`
	EffectiveTo       *time.Time       `json:"effective_to,omitempty"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"created_at"`
}

// PricingRuleListRequest filtros de GET /api/pricing/rules.
type PricingRuleListRequest struct {
	ServiceOfferingID string `query:"service_offering_id"`
	ZoneID            string `query:"zone_id"`
	OnlyActive        bool   `query:"only_active"`
}
