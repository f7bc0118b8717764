package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
)

type pricingRuleRepo struct{ s *Store }

func (r *pricingRuleRepo) Create(_ context.Context, rule *entity.PricingRule) error {
	return r.s.update(false, func(d *dataset) error {
		if _, exists := d.rules[rule.ID]; exists {
			return fmt.Errorf("%w: regla %s", domain.ErrDuplicate, rule.ID)
		}
		d.rules[rule.ID] = *rule
		return nil
	})
}

func (r *pricingRuleRepo) GetByID(_ context.Context, id string) (*entity.PricingRule, error) {
	var out *entity.PricingRule
	_ = r.s.view(false, func(d *dataset) error {
		if rule, ok := d.rules[id]; ok {
			out = &rule
		}
		return nil
	})
	return out, nil
}

func (r *pricingRuleRepo) FindMatching(_ context.Context, serviceOfferingID, zoneID string, weight decimal.Decimal, at time.Time) ([]*entity.PricingRule, error) {
	var out []*entity.PricingRule
	_ = r.s.view(false, func(d *dataset) error {
		for _, rule := range d.rules {
			if rule.Matches(serviceOfferingID, zoneID, weight, at) {
				rule := rule
				out = append(out, &rule)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *pricingRuleRepo) List(_ context.Context, filter repository.PricingRuleFilter) ([]*entity.PricingRule, error) {
	var out []*entity.PricingRule
	_ = r.s.view(false, func(d *dataset) error {
		for _, rule := range d.rules {
			if filter.ServiceOfferingID != "" && rule.ServiceOfferingID != filter.ServiceOfferingID {
				continue
			}
			if filter.ZoneID != "" && rule.ZoneID != filter.ZoneID {
				continue
			}
			if filter.OnlyActive && !rule.Active {
				continue
			}
			rule := rule
			out = append(out, &rule)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ServiceOfferingID != b.ServiceOfferingID {
			return a.ServiceOfferingID < b.ServiceOfferingID
		}
		if a.ZoneID != b.ZoneID {
			return a.ZoneID < b.ZoneID
		}
		if !a.MinWeight.Equal(b.MinWeight) {
			return a.MinWeight.LessThan(b.MinWeight)
		}
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.After(b.EffectiveFrom)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *pricingRuleRepo) Deactivate(_ context.Context, id string, now time.Time) error {
	return r.s.update(false, func(d *dataset) error {
		rule, ok := d.rules[id]
		if !ok {
			return fmt.Errorf("%w: regla %s", domain.ErrNotFound, id)
		}
		rule.Active = false
		rule.UpdatedAt = now
		d.rules[id] = rule
		return nil
	})
}
