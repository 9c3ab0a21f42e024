package services

import (
	"errors"
)

// ErrorKind classifies failures surfaced to API callers.
type ErrorKind string

const (
	KindUnauthorized    ErrorKind = "unauthorized"
	KindStudentNotFound ErrorKind = "student_not_found"
	KindUpstreamData    ErrorKind = "upstream_data"
	KindRateLimited     ErrorKind = "rate_limited"
	KindOverloaded      ErrorKind = "overloaded"
	KindGeneration      ErrorKind = "generation"
	KindPersistence     ErrorKind = "persistence"
	KindGuideNotFound   ErrorKind = "guide_not_found"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindInternal        ErrorKind = "internal"
)

// User-facing messages, in the students' language.
var userMessages = map[ErrorKind]string{
	KindUnauthorized:    "No autorizado",
	KindStudentNotFound: "Estudiante no encontrado",
	KindUpstreamData:    "Error interno al consultar los datos del estudiante",
	KindRateLimited:     "El servicio de IA recibió demasiadas solicitudes. Espera unos minutos e inténtalo de nuevo.",
	KindOverloaded:      "El servicio de IA está sobrecargado en este momento. Inténtalo de nuevo más tarde.",
	KindGeneration:      "No se pudo generar la guía de estudio. Inténtalo de nuevo.",
	KindPersistence:     "Error al guardar la guía de estudio",
	KindGuideNotFound:   "Guía de estudio no encontrada",
	KindInvalidInput:    "Solicitud inválida",
	KindInternal:        "Error interno del servidor",
}

// Error carries a user-facing Message separately from the wrapped cause,
// which is only meant for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: userMessages[kind], Err: err}
}

func invalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a service error, or KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UserMessage returns the text that is safe to show to the end user.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return userMessages[KindInternal]
}
