package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/payment"
	"github.com/jhoicas/Facturacion-envios/internal/application/pricing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog         *pricing.CatalogUseCase
	Calculator      *pricing.CalculatorUseCase
	Ledger          *billing.LedgerUseCase
	Reconciler      *payment.ReconcilerUseCase
	BillingDefaults billing.Defaults
	Issuer          string // nombre del emisor impreso en el PDF
	JWTSecret       string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(RoleAdmin, RoleBilling, RoleViewer)
	writers := RequireRole(RoleAdmin, RoleBilling)

	// Pricing
	pricingHandler := NewPricingHandler(deps.Catalog, deps.Calculator)
	pricingGroup := api.Group("/pricing")
	pricingGroup.Post("/quote", anyRole, pricingHandler.Quote)
	pricingGroup.Get("/rules", anyRole, pricingHandler.ListRules)
	pricingGroup.Post("/rules", RequireRole(RoleAdmin), pricingHandler.CreateRule)
	pricingGroup.Post("/rules/:id/deactivate", RequireRole(RoleAdmin), pricingHandler.DeactivateRule)

	// Invoices
	invoiceHandler := NewInvoiceHandler(deps.Ledger, deps.BillingDefaults, deps.Issuer)
	paymentHandler := NewPaymentHandler(deps.Reconciler)
	invoices := api.Group("/invoices")
	invoices.Post("/", writers, invoiceHandler.Create)
	invoices.Get("/", anyRole, invoiceHandler.List)
	invoices.Get("/:id", anyRole, invoiceHandler.GetByID)
	invoices.Post("/:id/cancel", writers, invoiceHandler.Cancel)
	invoices.Get("/:id/pdf", anyRole, invoiceHandler.DownloadPDF)
	invoices.Get("/:id/payments", anyRole, paymentHandler.ListByInvoice)
	invoices.Post("/:id/payments", writers, paymentHandler.Record)

	// Payments
	payments := api.Group("/payments")
	payments.Post("/:id/cancel", writers, paymentHandler.Cancel)
}
