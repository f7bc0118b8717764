package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-envios/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.19").Equal(cfg.Billing.TaxRate))
	assert.Equal(t, 30, cfg.Billing.PaymentTermDays)
	assert.Equal(t, "FAC", cfg.Billing.InvoicePrefix)
	assert.Equal(t, int32(2), cfg.Billing.CurrencyDecimals)
	assert.Equal(t, []string{"delivered"}, cfg.Billing.InvoiceableStatuses)
	assert.Equal(t, config.StorageDriverPostgres, cfg.App.StorageDriver)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{
		"BILLING_TAX_RATE":             "0.2",
		"BILLING_PAYMENT_TERM_DAYS":    "45",
		"BILLING_INVOICEABLE_STATUSES": "delivered, returned",
		"STORAGE_DRIVER":               "memory",
		"HTTP_PORT":                    "9090",
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.2").Equal(cfg.Billing.TaxRate))
	assert.Equal(t, 45, cfg.Billing.PaymentTermDays)
	assert.Equal(t, []string{"delivered", "returned"}, cfg.Billing.InvoiceableStatuses)
	assert.Equal(t, config.StorageDriverMemory, cfg.App.StorageDriver)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_TasaInvalida(t *testing.T) {
	_, err := loadWith(t, map[string]string{"BILLING_TAX_RATE": "1.5"})
	assert.Error(t, err)

	_, err = loadWith(t, map[string]string{"BILLING_TAX_RATE": "abc"})
	assert.Error(t, err)

	// La tasa se guarda con cuatro decimales; más precisión no se podría reproducir.
	_, err = loadWith(t, map[string]string{"BILLING_TAX_RATE": "0.19005"})
	assert.Error(t, err)

	cfg, err := loadWith(t, map[string]string{"BILLING_TAX_RATE": "0.1905"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.1905").Equal(cfg.Billing.TaxRate))
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "billing", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/billing?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

// loadWith fija variables de entorno (restauradas al terminar el test) y carga la configuración.
func loadWith(t *testing.T, env map[string]string) (*config.Config, error) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	return config.Load()
}
