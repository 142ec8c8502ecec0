package dto

import "github.com/shopspring/decimal"

func init() {
	// Montos como números JSON (10.5) y no como strings ("10.5").
	decimal.MarshalJSONWithoutQuotes = true
}

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// MaxPageLimit tope de elementos por página.
const MaxPageLimit = 100

// DefaultPage aplica valores por defecto y acota Limit/Offset.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Envelope sobre común de todas las respuestas JSON de la API.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Errors  []FieldErrorResponse `json:"errors,omitempty"`
}

// FieldErrorResponse detalle de un campo inválido.
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
