// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Code is a stable machine-readable reason; the optional fields carry the
// context of shift conflicts.
type APIError struct {
	Detail      string      `json:"detail"`
	Code        string      `json:"code,omitempty"`
	Mesas       interface{} `json:"mesas,omitempty"`
	Turno       interface{} `json:"turno,omitempty"`
	AbiertosHoy *int        `json:"abiertos_hoy,omitempty"`
	Maximo      *int        `json:"maximo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode returns an error envelope tagged with a reason code.
func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
