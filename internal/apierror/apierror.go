// Package apierror provides typed errors and standardized response structures.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a service error so HTTP handlers (and other callers) can
// react without parsing messages.
type Kind int

const (
	// KindInternal is a storage-layer or otherwise unexpected failure.
	// Surfaced unchanged; nothing was persisted because mutations are transactional.
	KindInternal Kind = iota
	// KindNotFound is a tenant-scoped entity that does not exist or belongs
	// to another empresa.
	KindNotFound
	// KindConflict is a state-incompatible request: caja occupied, open
	// session already exists, insufficient stock, duplicate comprobante.
	KindConflict
	// KindValidation is malformed input, caught before any transaction begins.
	KindValidation
	// KindConfigMissing means a required serie is not configured for the
	// (empresa, tipo comprobante, caja) combination. Not recoverable by
	// retry: requires administrative setup.
	KindConfigMissing
)

// Error is the typed error every service method returns on failure.
// Code is a stable machine identifier; Detail is the human message.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
	Err    error // wrapped cause, never serialized to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to the status the handlers respond with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation, KindConfigMissing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(code, detail string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Detail: detail}
}

func Conflict(code, detail string) *Error {
	return &Error{Kind: KindConflict, Code: code, Detail: detail}
}

func Validation(code, detail string) *Error {
	return &Error{Kind: KindValidation, Code: code, Detail: detail}
}

func ConfigMissing(code, detail string) *Error {
	return &Error{Kind: KindConfigMissing, Code: code, Detail: detail}
}

// Internal wraps an unexpected error (DB failure, deadlock abort) without
// exposing its text to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "error_interno", Detail: "Error interno del servidor", Err: err}
}

// FromErr returns the *Error inside err, or wraps err as internal.
func FromErr(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// ── HTTP envelopes ───────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Envelope builds the client-facing body for a typed error.
func Envelope(e *Error) *APIError {
	return &APIError{Code: e.Code, Detail: e.Detail}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
