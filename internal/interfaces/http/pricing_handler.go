package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/application/pricing"
)

// PricingHandler cotización y administración del catálogo tarifario.
type PricingHandler struct {
	catalog    *pricing.CatalogUseCase
	calculator *pricing.CalculatorUseCase
}

// NewPricingHandler construye el handler.
func NewPricingHandler(catalog *pricing.CatalogUseCase, calculator *pricing.CalculatorUseCase) *PricingHandler {
	return &PricingHandler{catalog: catalog, calculator: calculator}
}

// Quote godoc
// @Summary      Cotizar un envío
// @Description  Resuelve una regla por bulto (peso facturable = max(declarado, volumétrico)) y redondea solo el total.
// @Tags         pricing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.QuoteRequest  true  "Servicio, destino y bultos"
// @Success      200   {object}  dto.QuoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse  "PRICING_NOT_FOUND"
// @Router       /api/pricing/quote [post]
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	var in dto.QuoteRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.calculator.Calculate(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateRule godoc
// @Summary      Crear regla tarifaria
// @Tags         pricing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePricingRuleRequest  true  "Regla"
// @Success      201   {object}  dto.PricingRuleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pricing/rules [post]
func (h *PricingHandler) CreateRule(c *fiber.Ctx) error {
	var in dto.CreatePricingRuleRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.catalog.CreateRule(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListRules godoc
// @Summary      Listar reglas tarifarias
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Param        service_offering_id  query  string  false  "Servicio"
// @Param        zone_id              query  string  false  "Zona"
// @Param        only_active          query  bool    false  "Solo activas"
// @Success      200  {array}   dto.PricingRuleResponse
// @Router       /api/pricing/rules [get]
func (h *PricingHandler) ListRules(c *fiber.Ctx) error {
	var in dto.PricingRuleListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.catalog.ListRules(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeactivateRule godoc
// @Summary      Desactivar regla tarifaria
// @Tags         pricing
// @Security     Bearer
// @Param        id   path  string  true  "ID de la regla"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/pricing/rules/{id}/deactivate [post]
func (h *PricingHandler) DeactivateRule(c *fiber.Ctx) error {
	if err := h.catalog.DeactivateRule(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
