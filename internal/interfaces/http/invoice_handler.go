package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-envios/internal/application/billing"
	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP del libro de facturas (protegido).
type InvoiceHandler struct {
	ledger   *billing.LedgerUseCase
	defaults billing.Defaults
	issuer   string
}

// NewInvoiceHandler construye el handler. defaults se leen una vez al arrancar.
func NewInvoiceHandler(ledger *billing.LedgerUseCase, defaults billing.Defaults, issuer string) *InvoiceHandler {
	return &InvoiceHandler{ledger: ledger, defaults: defaults, issuer: issuer}
}

// Create godoc
// @Summary      Emitir factura
// @Description  Factura envíos entregados de un cliente. Todo o nada: si un envío no es facturable no se emite nada.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cliente y envíos"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	due := h.defaults.PaymentTermDays
	if in.DueInDays != nil {
		due = *in.DueInDays
	}
	out, err := h.ledger.Generate(c.UserContext(), billing.GenerateInvoiceInput{
		ClientID:    in.ClientID,
		ShipmentIDs: in.ShipmentIDs,
		DueInDays:   due,
		Notes:       in.Notes,
		TaxRate:     h.defaults.TaxRate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar facturas de un cliente
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  true   "Cliente"
// @Param        limit      query  int     false  "Límite (default 20)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var in dto.InvoiceListRequest
	if err := c.QueryParser(&in.Page); err != nil {
		return writeError(c, fmt.Errorf("%w: paginación inválida", domain.ErrValidation))
	}
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.ListByClient(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de factura
// @Description  Status es el estado de presentación (overdue se deriva al consultar).
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceDetailsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.ledger.GetDetails(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular factura
// @Description  Solo sin pagos activos; libera los envíos para refacturarlos.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.ledger.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar PDF de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.ledger.DownloadPDF(c.UserContext(), h.issuer, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdfBytes)
}
