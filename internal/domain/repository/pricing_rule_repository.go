package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// PricingRuleFilter filtros opcionales para el listado administrativo.
type PricingRuleFilter struct {
	ServiceOfferingID string
	ZoneID            string
	OnlyActive        bool
}

// PricingRuleRepository define el puerto de persistencia del catálogo tarifario.
type PricingRuleRepository interface {
	Create(ctx context.Context, rule *entity.PricingRule) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.PricingRule, error)
	// FindMatching devuelve las reglas activas que cubren servicio, zona, peso e instante,
	// ordenadas por effective_from descendente.
	FindMatching(ctx context.Context, serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) ([]*entity.PricingRule, error)
	List(ctx context.Context, filter PricingRuleFilter) ([]*entity.PricingRule, error)
	Deactivate(ctx context.Context, id string, now time.Time) error
}
