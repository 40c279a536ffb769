// Package apperr defines the error taxonomy shared by the request pipeline,
// the services and the HTTP layer. Each Kind maps to one HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error
type Kind string

const (
	KindInvalidCredential  Kind = "invalid_credential"
	KindUnauthorized       Kind = "unauthorized"
	KindTenantMissing      Kind = "tenant_missing"
	KindValidationFailed   Kind = "validation_failed"
	KindConstraintConflict Kind = "constraint_conflict"
	KindNotFound           Kind = "not_found"
	KindConfiguration      Kind = "configuration_error"
	KindInternal           Kind = "internal"
)

// Error is a classified error. Fields is only set for KindValidationFailed
// and maps each violated field to its message.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " [%s: %s]", k, e.Fields[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidCredential, KindUnauthorized:
		return http.StatusUnauthorized
	case KindTenantMissing, KindValidationFailed:
		return http.StatusBadRequest
	case KindConstraintConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body returns the JSON body sent to clients. Validation failures are keyed by
// field name; everything else uses a single "detail" key.
func (e *Error) Body() map[string]string {
	if e.Kind == KindValidationFailed && len(e.Fields) > 0 {
		body := make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			body[k] = v
		}
		return body
	}
	msg := e.Msg
	if msg == "" {
		msg = http.StatusText(e.Status())
	}
	return map[string]string{"detail": msg}
}

// New creates an error of the given kind
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates an error of the given kind wrapping err
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validation creates a validation failure over the given field violations
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Msg: "validation failed", Fields: fields}
}

// As extracts an *Error from err. Unclassified errors are reported as
// KindInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Msg: "internal server error", Err: err}
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
