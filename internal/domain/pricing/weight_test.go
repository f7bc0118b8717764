package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
	"github.com/jhoicas/Facturacion-envios/internal/domain/pricing"
)

var divisor = decimal.NewFromInt(pricing.DefaultVolumetricDivisor)

func TestBillableWeight_DeclaradoMayor(t *testing.T) {
	p := entity.Package{
		Weight: decimal.NewFromInt(3),
		Length: decimal.NewFromInt(10), Width: decimal.NewFromInt(10), Height: decimal.NewFromInt(10),
	}
	// 1000 cm³ / 5000 = 0.2 kg
	assert.True(t, decimal.RequireFromString("0.2").Equal(pricing.VolumetricWeight(p, divisor)))
	assert.True(t, decimal.NewFromInt(3).Equal(pricing.BillableWeight(p, divisor)))
}

func TestBillableWeight_VolumetricoMayor(t *testing.T) {
	p := entity.Package{
		Weight: decimal.NewFromInt(2),
		Length: decimal.NewFromInt(50), Width: decimal.NewFromInt(40), Height: decimal.NewFromInt(30),
	}
	// 60000 cm³ / 5000 = 12 kg
	assert.True(t, decimal.NewFromInt(12).Equal(pricing.BillableWeight(p, divisor)))
}

func TestBillableWeight_SinDimensiones(t *testing.T) {
	p := entity.Package{Weight: decimal.RequireFromString("1.5")}
	assert.True(t, pricing.VolumetricWeight(p, divisor).IsZero())
	assert.True(t, decimal.RequireFromString("1.5").Equal(pricing.BillableWeight(p, divisor)))
}
