package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/money"
	domainpricing "github.com/jhoicas/Facturacion-envios/internal/domain/pricing"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
	"github.com/jhoicas/Facturacion-envios/pkg/metrics"
)

// Policy parámetros de cálculo leídos de configuración.
type Policy struct {
	VolumetricDivisor decimal.Decimal
	CurrencyDecimals  int32
}

// DefaultPolicy divisor 5000 cm³/kg y centavos.
func DefaultPolicy() Policy {
	return Policy{
		VolumetricDivisor: decimal.NewFromInt(domainpricing.DefaultVolumetricDivisor),
		CurrencyDecimals:  money.DefaultPlaces,
	}
}

// CalculatorUseCase calcula el precio de un envío a partir del catálogo tarifario.
type CalculatorUseCase struct {
	catalog      *CatalogUseCase
	offerings    repository.ServiceOfferingRepository
	destinations repository.DestinationRepository
	policy       Policy
	log          *logger.Logger
	now          func() time.Time
}

// NewCalculatorUseCase construye el caso de uso.
func NewCalculatorUseCase(
	catalog *CatalogUseCase,
	offerings repository.ServiceOfferingRepository,
	destinations repository.DestinationRepository,
	policy Policy,
	log *logger.Logger,
) *CalculatorUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CalculatorUseCase{
		catalog:      catalog,
		offerings:    offerings,
		destinations: destinations,
		policy:       policy,
		log:          log,
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *CalculatorUseCase) WithClock(now func() time.Time) *CalculatorUseCase {
	uc.now = now
	return uc
}

// Calculate resuelve una regla por bulto y devuelve el total redondeado una sola vez con su desglose.
// Sin regla aplicable falla con ErrPricingNotFound; nunca aplica una tarifa por defecto.
func (uc *CalculatorUseCase) Calculate(ctx context.Context, in dto.QuoteRequest) (resp *dto.QuoteResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(metrics.OpQuote, err, time.Since(start)) }()

	if in.ServiceOfferingID == "" || in.DestinationID == "" {
		return nil, fmt.Errorf("%w: service_offering_id y destination_id son requeridos", domain.ErrValidation)
	}
	if len(in.Packages) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos un bulto", domain.ErrValidation)
	}

	offering, err := uc.offerings.GetByID(ctx, in.ServiceOfferingID)
	if err != nil {
		return nil, fmt.Errorf("cotización: obtener servicio: %w", err)
	}
	if offering == nil || !offering.Active {
		return nil, fmt.Errorf("%w: oferta de servicio %s", domain.ErrNotFound, in.ServiceOfferingID)
	}
	dest, err := uc.destinations.GetByID(ctx, in.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("cotización: obtener destino: %w", err)
	}
	if dest == nil || !dest.Active {
		return nil, fmt.Errorf("%w: destino %s", domain.ErrNotFound, in.DestinationID)
	}

	at := uc.now()
	if in.At != nil {
		at = *in.At
	}

	lines := make([]dto.PackageQuote, 0, len(in.Packages))
	costs := make([]decimal.Decimal, 0, len(in.Packages))
	for i, p := range in.Packages {
		pkg := entity.Package{Weight: p.Weight, Length: p.Length, Width: p.Width, Height: p.Height}
		if err := validatePackage(i, pkg); err != nil {
			return nil, err
		}
		volumetric := domainpricing.VolumetricWeight(pkg, uc.policy.VolumetricDivisor)
		billable := domainpricing.BillableWeight(pkg, uc.policy.VolumetricDivisor)

		rule, err := uc.resolve(ctx, offering.ID, dest.ZoneID, billable, at)
		if err != nil {
			return nil, fmt.Errorf("bulto %d: %w", i, err)
		}
		cost := rule.Cost(billable)
		costs = append(costs, cost)
		lines = append(lines, dto.PackageQuote{
			Index:            i,
			RuleID:           rule.ID,
			DeclaredWeight:   pkg.Weight,
			VolumetricWeight: volumetric,
			BillableWeight:   billable,
			Cost:             cost,
		})
	}

	return &dto.QuoteResponse{
		ServiceOfferingID: offering.ID,
		DestinationID:     dest.ID,
		ZoneID:            dest.ZoneID,
		At:                at,
		Packages:          lines,
		Total:             money.Round(money.Sum(costs...), uc.policy.CurrencyDecimals),
	}, nil
}

// resolve elige exactamente una regla. Varias coincidencias: gana la de effective_from más reciente;
// un empate exacto en effective_from es un error de configuración del catálogo.
func (uc *CalculatorUseCase) resolve(ctx context.Context, serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) (*entity.PricingRule, error) {
	rules, err := uc.catalog.FindApplicable(ctx, serviceOfferingID, zoneID, weight, at)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		metrics.IncPricingNotFound(serviceOfferingID, zoneID)
		return nil, fmt.Errorf("%w: servicio %s, zona %s, peso %s", domain.ErrPricingNotFound,
			serviceOfferingID, zoneID, weight.String())
	}
	if len(rules) > 1 && rules[0].EffectiveFrom.Equal(rules[1].EffectiveFrom) {
		uc.log.Warn().Str("rule_a", rules[0].ID).Str("rule_b", rules[1].ID).
			Str("service_offering_id", serviceOfferingID).Str("zone_id", zoneID).
			Msg("reglas tarifarias ambiguas")
		return nil, fmt.Errorf("%w: reglas %s y %s son ambiguas para el peso %s", domain.ErrConflict,
			rules[0].ID, rules[1].ID, weight.String())
	}
	return rules[0], nil
}

func validatePackage(i int, p entity.Package) error {
	if !p.Weight.IsPositive() {
		return fmt.Errorf("%w: bulto %d: el peso declarado debe ser mayor que cero", domain.ErrValidation, i)
	}
	if p.Length.IsNegative() || p.Width.IsNegative() || p.Height.IsNegative() {
		return fmt.Errorf("%w: bulto %d: dimensiones negativas", domain.ErrValidation, i)
	}
	return nil
}
