package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/Facturacion-envios/docs"
	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/payment"
	"github.com/jhoicas/Facturacion-envios/internal/application/pricing"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
	"github.com/jhoicas/Facturacion-envios/internal/domain/repository"
	"github.com/jhoicas/Facturacion-envios/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Facturacion-envios/internal/infrastructure/pdf"
	"github.com/jhoicas/Facturacion-envios/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Facturacion-envios/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-envios/pkg/config"
	"github.com/jhoicas/Facturacion-envios/pkg/logger"
	"github.com/jhoicas/Facturacion-envios/pkg/metrics"
)

// storage agrupa los adaptadores que necesita la aplicación, sea PostgreSQL o memoria.
type storage struct {
	billingTx    billing.BillingTxRunner
	paymentTx    payment.PaymentTxRunner
	rules        repository.PricingRuleRepository
	offerings    repository.ServiceOfferingRepository
	destinations repository.DestinationRepository
	clients      repository.ClientRepository
	shipments    repository.ShipmentRepository
	invoices     repository.InvoiceRepository
	payments     repository.PaymentRepository
	close        func()
}

// @title           Facturación de envíos API
// @version         1.0
// @description     Motor de facturación de envíos: tarifas, facturas y pagos.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	if cfg.Metrics.Enabled {
		metrics.Init(domain.KindOf)
	}

	catalogUC := pricing.NewCatalogUseCase(store.rules, log)
	calculatorUC := pricing.NewCalculatorUseCase(catalogUC, store.offerings, store.destinations, pricing.Policy{
		VolumetricDivisor: cfg.Billing.VolumetricDivisor,
		CurrencyDecimals:  cfg.Billing.CurrencyDecimals,
	}, log)

	// PDF: representación imprimible de la factura
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.Billing.CurrencyDecimals)
	ledgerUC := billing.NewLedgerUseCase(
		store.billingTx, store.clients, store.shipments, store.invoices, store.payments,
		pdfGenerator,
		billing.Policy{
			InvoicePrefix:       cfg.Billing.InvoicePrefix,
			CurrencyDecimals:    cfg.Billing.CurrencyDecimals,
			InvoiceableStatuses: cfg.Billing.InvoiceableStatuses,
			MaxRetries:          cfg.Billing.MaxRetries,
		},
		log,
	)
	reconcilerUC := payment.NewReconcilerUseCase(store.paymentTx, store.invoices, store.payments, payment.Policy{
		CurrencyDecimals: cfg.Billing.CurrencyDecimals,
		MaxRetries:       cfg.Billing.MaxRetries,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación de envíos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog:    catalogUC,
		Calculator: calculatorUC,
		Ledger:     ledgerUC,
		Reconciler: reconcilerUC,
		BillingDefaults: billing.Defaults{
			TaxRate:         cfg.Billing.TaxRate,
			PaymentTermDays: cfg.Billing.PaymentTermDays,
		},
		Issuer:    cfg.App.Name,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		tx := memory.NewTxRunner(s)
		return &storage{
			billingTx:    tx,
			paymentTx:    tx,
			rules:        s.PricingRules(),
			offerings:    s.ServiceOfferings(),
			destinations: s.Destinations(),
			clients:      s.Clients(),
			shipments:    s.Shipments(),
			invoices:     s.Invoices(),
			payments:     s.Payments(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	tx := postgres.NewTxRunner(pool)
	return &storage{
		billingTx:    tx,
		paymentTx:    tx,
		rules:        postgres.NewPricingRuleRepository(pool),
		offerings:    postgres.NewServiceOfferingRepository(pool),
		destinations: postgres.NewDestinationRepository(pool),
		clients:      postgres.NewClientRepository(pool),
		shipments:    postgres.NewShipmentRepository(pool),
		invoices:     postgres.NewInvoiceRepository(pool),
		payments:     postgres.NewPaymentRepository(pool),
		close:        pool.Close,
	}, nil
}
