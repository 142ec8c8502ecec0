package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrDependency   = errors.New("dependencia no disponible")
)

// FieldError describe un campo rechazado por validación.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError agrupa errores por campo. errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Add registra un error de campo.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err devuelve nil si no hay errores acumulados.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid construye un ValidationError de un solo campo.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// StateError es un conflicto con el estado actual del recurso; envuelve ErrConflict.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func (e *StateError) Unwrap() error { return ErrConflict }

// Conflict construye un StateError con mensaje formateado.
func Conflict(format string, args ...any) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// NotFound envuelve ErrNotFound indicando el recurso.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}
