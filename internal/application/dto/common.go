package dto

// Límites de paginación de los listados.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest paginación para listados. Limit 0 = DefaultPageLimit.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// Normalize aplica el límite por defecto y acota a MaxPageLimit.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Echo metadatos de la página efectivamente servida.
func (p PageRequest) Echo() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Code es el tipo de error de dominio (VALIDATION, NOT_FOUND, ...).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
