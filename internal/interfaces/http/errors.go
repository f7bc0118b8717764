package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-envios/internal/application/dto"
	"github.com/jhoicas/Facturacion-envios/internal/domain"
)

// localError guarda el error interno para que RequestLogger lo registre sin exponerlo.
const localError = "handler_error"

var statusByKind = map[string]int{
	domain.KindValidation:      fiber.StatusBadRequest,
	domain.KindNotFound:        fiber.StatusNotFound,
	domain.KindConflict:        fiber.StatusConflict,
	domain.KindPricingNotFound: fiber.StatusUnprocessableEntity,
	domain.KindUnauthorized:    fiber.StatusUnauthorized,
	domain.KindForbidden:       fiber.StatusForbidden,
}

// writeError traduce un error de caso de uso a status HTTP + dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		c.Locals(localError, err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: domain.KindInternal, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: kind, Message: err.Error()})
}

// ErrorHandler último recurso para errores no manejados por los handlers (404 de rutas, panics recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
