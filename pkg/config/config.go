package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory" // un solo proceso; desarrollo y demos
)

// taxRatePlaces escala de tva_rate en la base.
const taxRatePlaces int32 = 4

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Billing BillingConfig
	Metrics MetricsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	StorageDriver string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool // aplica migrations/ al arrancar
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig verificación de tokens emitidos por el servicio de autenticación.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BillingConfig parámetros del motor de facturación.
// TaxRate y PaymentTermDays se leen una sola vez al arrancar y se pasan explícitamente a cada factura.
type BillingConfig struct {
	TaxRate             decimal.Decimal
	PaymentTermDays     int
	InvoicePrefix       string
	CurrencyDecimals    int32
	VolumetricDivisor   decimal.Decimal
	MaxRetries          int
	InvoiceableStatuses []string
}

// MetricsConfig exposición de métricas Prometheus.
type MetricsConfig struct {
	Enabled bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, BILLING_TAX_RATE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	taxRate, err := getDecimal(v, "BILLING_TAX_RATE", "0.19")
	if err != nil {
		return nil, err
	}
	divisor, err := getDecimal(v, "BILLING_VOLUMETRIC_DIVISOR", "5000")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "facturacion-envios"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			StorageDriver: getString(v, "STORAGE_DRIVER", StorageDriverPostgres),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturacion_envios"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "auth-service"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Billing: BillingConfig{
			TaxRate:             taxRate,
			PaymentTermDays:     getInt(v, "BILLING_PAYMENT_TERM_DAYS", 30),
			InvoicePrefix:       getString(v, "BILLING_INVOICE_PREFIX", "FAC"),
			CurrencyDecimals:    int32(getInt(v, "BILLING_CURRENCY_DECIMALS", 2)),
			VolumetricDivisor:   divisor,
			MaxRetries:          getInt(v, "BILLING_MAX_RETRIES", 5),
			InvoiceableStatuses: getList(v, "BILLING_INVOICEABLE_STATUSES", []string{"delivered"}),
		},
		Metrics: MetricsConfig{
			Enabled: getBool(v, "METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones que dejarían el motor en un estado incoherente.
func (c *Config) Validate() error {
	if c.Billing.TaxRate.IsNegative() || !c.Billing.TaxRate.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("config: BILLING_TAX_RATE debe estar en [0, 1), recibido %s", c.Billing.TaxRate)
	}
	if !c.Billing.TaxRate.Equal(c.Billing.TaxRate.Round(taxRatePlaces)) {
		return fmt.Errorf("config: BILLING_TAX_RATE admite como máximo %d decimales, recibido %s", taxRatePlaces, c.Billing.TaxRate)
	}
	if c.Billing.PaymentTermDays < 0 {
		return fmt.Errorf("config: BILLING_PAYMENT_TERM_DAYS no puede ser negativo")
	}
	if c.Billing.CurrencyDecimals < 0 || c.Billing.CurrencyDecimals > 4 {
		return fmt.Errorf("config: BILLING_CURRENCY_DECIMALS fuera de rango")
	}
	if !c.Billing.VolumetricDivisor.IsPositive() {
		return fmt.Errorf("config: BILLING_VOLUMETRIC_DIVISOR debe ser positivo")
	}
	if c.Billing.MaxRetries < 1 {
		return fmt.Errorf("config: BILLING_MAX_RETRIES debe ser al menos 1")
	}
	if len(c.Billing.InvoiceableStatuses) == 0 {
		return fmt.Errorf("config: BILLING_INVOICEABLE_STATUSES vacío")
	}
	switch c.App.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: STORAGE_DRIVER desconocido %q", c.App.StorageDriver)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

func getDecimal(v *viper.Viper, key, def string) (decimal.Decimal, error) {
	raw := getString(v, key, def)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s inválido %q: %w", key, raw, err)
	}
	return d, nil
}

// getList admite valores separados por coma (BILLING_INVOICEABLE_STATUSES=delivered,returned).
func getList(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
