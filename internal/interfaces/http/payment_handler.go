package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/application/payment"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

// HeaderIdempotencyKey alternativa al campo idempotency_key del body.
const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentHandler registro y anulación de pagos.
type PaymentHandler struct {
	reconciler *payment.ReconcilerUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(reconciler *payment.ReconcilerUseCase) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler}
}

// Record godoc
// @Summary      Registrar pago
// @Description  Un reintento con la misma clave de idempotencia y el mismo cuerpo devuelve el pago original (200).
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string                    true   "ID de la factura"
// @Param        Idempotency-Key  header  string                    false  "Clave de idempotencia"
// @Param        body             body    dto.RecordPaymentRequest  true   "Pago"
// @Success      201  {object}  dto.PaymentResultResponse
// @Success      200  {object}  dto.PaymentResultResponse  "replay"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [post]
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	key := in.IdempotencyKey
	if hk := c.Get(HeaderIdempotencyKey); hk != "" {
		if key != "" && key != hk {
			return writeError(c, fmt.Errorf("%w: la clave del header y la del cuerpo no coinciden", domain.ErrValidation))
		}
		key = hk
	}
	var paidAt time.Time
	if in.PaymentDate != nil {
		paidAt = *in.PaymentDate
	}
	out, err := h.reconciler.RecordPayment(c.UserContext(), payment.RecordPaymentInput{
		InvoiceID:      c.Params("id"),
		Amount:         in.Amount,
		Method:         in.Method,
		PaymentDate:    paidAt,
		Reference:      in.Reference,
		Notes:          in.Notes,
		IdempotencyKey: key,
	})
	if err != nil {
		return writeError(c, err)
	}
	if out.Replay {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListByInvoice godoc
// @Summary      Pagos de una factura
// @Description  Incluye pagos anulados, más recientes primero.
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {array}   dto.PaymentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [get]
func (h *PaymentHandler) ListByInvoice(c *fiber.Ctx) error {
	out, err := h.reconciler.GetInvoicePayments(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular pago
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pago"
// @Success      200  {object}  dto.PaymentResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.reconciler.CancelPayment(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
