package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
	"github.com/jhoicas/Facturacion-envios/pkg/metrics"
)

// CatalogUseCase acceso al catálogo tarifario: consulta de reglas aplicables y administración.
type CatalogUseCase struct {
	rules repository.PricingRuleRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(rules repository.PricingRuleRepository, log *logger.Logger) *CatalogUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogUseCase{rules: rules, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *CatalogUseCase) WithClock(now func() time.Time) *CatalogUseCase {
	uc.now = now
	return uc
}

// FindApplicable devuelve las reglas activas que cubren servicio, zona, peso e instante,
// la más reciente por effective_from primero. Sin lógica adicional.
func (uc *CatalogUseCase) FindApplicable(ctx context.Context, serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) ([]*entity.PricingRule, error) {
	rules, err := uc.rules.FindMatching(ctx, serviceOfferingID, zoneID, weight, at)
	if err != nil {
		return nil, fmt.Errorf("catálogo: buscar reglas: %w", err)
	}
	return rules, nil
}

// CreateRule publica una regla nueva. Rechaza reglas que no podrían distinguirse de una activa existente
// (mismo servicio y zona, tramo solapado y el mismo effective_from).
func (uc *CatalogUseCase) CreateRule(ctx context.Context, in dto.CreatePricingRuleRequest) (resp *dto.PricingRuleResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpCreateRule, err, time.Since(start)) }()

	now := uc.now()
	rule := &entity.PricingRule{
		ID:                uuid.New().String(),
		ServiceOfferingID: in.ServiceOfferingID,
		ZoneID:            in.ZoneID,
		MinWeight:         in.MinWeight,
		MaxWeight:         in.MaxWeight,
		RateType:          in.RateType,
		BaseFee:           in.BaseFee,
		PerWeightRate:     in.PerWeightRate,
		EffectiveFrom:     in.EffectiveFrom,
		EffectiveTo:       in.EffectiveTo,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.rules.List(ctx, repository.PricingRuleFilter{
		ServiceOfferingID: rule.ServiceOfferingID,
		ZoneID:            rule.ZoneID,
		OnlyActive:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("catálogo: listar reglas: %w", err)
	}
	for _, other := range existing {
		if rule.Ambiguous(other) {
			return nil, fmt.Errorf("%w: la regla %s ya cubre ese tramo con la misma vigencia", domain.ErrConflict, other.ID)
		}
	}

	if err := uc.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("catálogo: crear regla: %w", err)
	}
	uc.log.Info().Str("rule_id", rule.ID).Str("service_offering_id", rule.ServiceOfferingID).
		Str("zone_id", rule.ZoneID).Time("effective_from", rule.EffectiveFrom).Msg("regla tarifaria publicada")
	out := toRuleResponse(rule)
	return &out, nil
}

// ListRules lista reglas con filtros opcionales.
func (uc *CatalogUseCase) ListRules(ctx context.Context, in dto.PricingRuleListRequest) ([]dto.PricingRuleResponse, error) {
	rules, err := uc.rules.List(ctx, repository.PricingRuleFilter{
		ServiceOfferingID: in.ServiceOfferingID,
		ZoneID:            in.ZoneID,
		OnlyActive:        in.OnlyActive,
	})
	if err != nil {
		return nil, fmt.Errorf("catálogo: listar reglas: %w", err)
	}
	out := make([]dto.PricingRuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r))
	}
	return out, nil
}

// DeactivateRule retira una regla del catálogo. Las reglas no se borran.
func (uc *CatalogUseCase) DeactivateRule(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpDeactivateRule, err, time.Since(start)) }()

	rule, err := uc.rules.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("catálogo: obtener regla: %w", err)
	}
	if rule == nil {
		return fmt.Errorf("%w: regla %s", domain.ErrNotFound, id)
	}
	if !rule.Active {
		return fmt.Errorf("%w: la regla %s ya está inactiva", domain.ErrConflict, id)
	}
	if err := uc.rules.Deactivate(ctx, id, uc.now()); err != nil {
		return fmt.Errorf("catálogo: desactivar regla: %w", err)
	}
	uc.log.Info().Str("rule_id", id).Msg("regla tarifaria desactivada")
	return nil
}

func toRuleResponse(r *entity.PricingRule) dto.PricingRuleResponse {
	return dto.PricingRuleResponse{
		ID:                r.ID,
		ServiceOfferingID: r.ServiceOfferingID,
		ZoneID:            r.ZoneID,
		MinWeight:         r.MinWeight,
		MaxWeight:         r.MaxWeight,
		RateType:          r.RateType,
		BaseFee:           r.BaseFee,
		PerWeightRate:     r.PerWeightRate,
		EffectiveFrom:     r.EffectiveFrom,
		EffectiveTo:       r.EffectiveTo,
		Active:            r.Active,
		CreatedAt:         r.CreatedAt,
	}
}
