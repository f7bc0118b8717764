package pricing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

func TestCreateRule_RechazaReglaAmbigua(t *testing.T) {
	f := newFixture(t)
	from := now.AddDate(0, -1, 0)
	f.addRule(t, standardZoneA(from))

	dup := standardZoneA(from)
	dup.BaseFee = d("450")
	_, err := f.catalog.CreateRule(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Otra fecha de inicio: cambio de tarifa legítimo.
	later := standardZoneA(from.AddDate(0, 0, 15))
	_, err = f.catalog.CreateRule(context.Background(), later)
	assert.NoError(t, err)

	// Tramo contiguo [5, ∞) con la misma fecha: no se solapa.
	next := standardZoneA(from)
	next.MinWeight = d("5")
	next.MaxWeight = nil
	_, err = f.catalog.CreateRule(context.Background(), next)
	assert.NoError(t, err)
}

func TestCreateRule_Validacion(t *testing.T) {
	f := newFixture(t)
	bad := standardZoneA(now)
	bad.MaxWeight = ptr(d("0"))
	_, err := f.catalog.CreateRule(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = standardZoneA(now)
	bad.RateType = "por_km"
	_, err = f.catalog.CreateRule(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeactivateRule(t *testing.T) {
	f := newFixture(t)
	id := f.addRule(t, standardZoneA(now.AddDate(0, -1, 0)))

	require.NoError(t, f.catalog.DeactivateRule(context.Background(), id))
	assert.ErrorIs(t, f.catalog.DeactivateRule(context.Background(), id), domain.ErrConflict)
	assert.ErrorIs(t, f.catalog.DeactivateRule(context.Background(), "nope"), domain.ErrNotFound)

	_, err := f.calculator.Calculate(context.Background(), quote(kg("3")))
	assert.ErrorIs(t, err, domain.ErrPricingNotFound)

	// La desactivada libera el hueco: se puede publicar otra con la misma fecha.
	_, err = f.catalog.CreateRule(context.Background(), standardZoneA(now.AddDate(0, -1, 0)))
	assert.NoError(t, err)

	all, err := f.catalog.ListRules(context.Background(), dto.PricingRuleListRequest{ServiceOfferingID: "std"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := f.catalog.ListRules(context.Background(), dto.PricingRuleListRequest{OnlyActive: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
