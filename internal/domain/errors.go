package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso agregan contexto con fmt.Errorf("%w: ...", ErrX) para que errors.Is siga funcionando.
var (
	ErrValidation      = errors.New("datos inválidos")
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrPricingNotFound = errors.New("no existe una tarifa aplicable")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")

	// ErrConcurrentUpdate indica que la revisión cambió entre la lectura y la escritura.
	// Es interno: los casos de uso reintentan y, agotados los intentos, lo exponen como ErrConflict.
	ErrConcurrentUpdate = errors.New("el registro fue modificado por otra operación")
)

// Códigos estables de error expuestos a los clientes.
const (
	KindValidation      = "VALIDATION"
	KindNotFound        = "NOT_FOUND"
	KindConflict        = "CONFLICT"
	KindPricingNotFound = "PRICING_NOT_FOUND"
	KindUnauthorized    = "UNAUTHORIZED"
	KindForbidden       = "FORBIDDEN"
	KindInternal        = "INTERNAL"
)

// KindOf clasifica un error en su código estable.
// ErrPricingNotFound se evalúa antes que ErrNotFound: indica un hueco de configuración del catálogo.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPricingNotFound):
		return KindPricingNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrDuplicate):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}
