package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

var _ repository.PricingRuleRepository = (*PricingRuleRepo)(nil)

const pricingRuleColumns = `id, service_offering_id, zone_id, min_weight, max_weight, rate_type, base_fee,
	per_weight_rate, effective_from, effective_to, active, created_at, updated_at`

// PricingRuleRepo implementación de PricingRuleRepository.
type PricingRuleRepo struct {
	q Querier
}

// NewPricingRuleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPricingRuleRepository(q Querier) *PricingRuleRepo {
	return &PricingRuleRepo{q: q}
}

// Create persiste una regla.
func (r *PricingRuleRepo) Create(ctx context.Context, rule *entity.PricingRule) error {
	query := `
		INSERT INTO pricing_rules (` + pricingRuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		rule.ID, rule.ServiceOfferingID, rule.ZoneID, rule.MinWeight, rule.MaxWeight, rule.RateType,
		rule.BaseFee, rule.PerWeightRate, rule.EffectiveFrom, rule.EffectiveTo, rule.Active,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert pricing rule: %w", err)
	}
	return nil
}

// GetByID obtiene una regla por ID.
func (r *PricingRuleRepo) GetByID(ctx context.Context, id string) (*entity.PricingRule, error) {
	if !isUUID(id) {
		return nil, nil
	}
	rule, err := scanPricingRule(r.q.QueryRow(ctx, `SELECT `+pricingRuleColumns+` FROM pricing_rules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pricing rule: %w", err)
	}
	return rule, nil
}

// FindMatching filtra por servicio, zona, tramo [min, max) y vigencia [from, to); más reciente primero.
func (r *PricingRuleRepo) FindMatching(ctx context.Context, serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) ([]*entity.PricingRule, error) {
	if !isUUID(serviceOfferingID) {
		return []*entity.PricingRule{}, nil
	}
	query := `
		SELECT ` + pricingRuleColumns + `
		FROM pricing_rules
		WHERE active
		AND service_offering_id = $1
		AND zone_id = $2
		AND min_weight <= $3
		AND (max_weight IS NULL OR max_weight > $3)
		AND effective_from <= $4
		AND (effective_to IS NULL OR effective_to > $4)
		ORDER BY effective_from DESC, id`
	return r.queryRules(ctx, query, serviceOfferingID, zoneID, weight, at)
}

// List lista reglas con filtros opcionales.
func (r *PricingRuleRepo) List(ctx context.Context, filter repository.PricingRuleFilter) ([]*entity.PricingRule, error) {
	var conds []string
	var args []any
	if filter.ServiceOfferingID != "" {
		if !isUUID(filter.ServiceOfferingID) {
			return []*entity.PricingRule{}, nil
		}
		args = append(args, filter.ServiceOfferingID)
		conds = append(conds, fmt.Sprintf("service_offering_id = $%d", len(args)))
	}
	if filter.ZoneID != "" {
		args = append(args, filter.ZoneID)
		conds = append(conds, fmt.Sprintf("zone_id = $%d", len(args)))
	}
	if filter.OnlyActive {
		conds = append(conds, "active")
	}
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY service_offering_id, zone_id, min_weight, effective_from DESC, id`
	return r.queryRules(ctx, query, args...)
}

// Deactivate marca la regla como inactiva.
func (r *PricingRuleRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	if !isUUID(id) {
		return fmt.Errorf("%w: regla %s", domain.ErrNotFound, id)
	}
	tag, err := r.q.Exec(ctx, `UPDATE pricing_rules SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate pricing rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: regla %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PricingRuleRepo) queryRules(ctx context.Context, query string, args ...any) ([]*entity.PricingRule, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pricing rules: %w", err)
	}
	defer rows.Close()
	var out []*entity.PricingRule
	for rows.Next() {
		rule, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanPricingRule(row pgx.Row) (*entity.PricingRule, error) {
	var rule entity.PricingRule
	err := row.Scan(
		&rule.ID, &rule.ServiceOfferingID, &rule.ZoneID, &rule.MinWeight, &rule.MaxWeight, &rule.RateType,
		&rule.BaseFee, &rule.PerWeightRate, &rule.EffectiveFrom, &rule.EffectiveTo, &rule.Active,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
