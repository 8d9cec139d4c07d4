package domain

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies engine failures.
type Kind string

const (
	KindValidation             Kind = "VALIDATION_ERROR"
	KindNotFound               Kind = "NOT_FOUND"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindProvider               Kind = "PROVIDER_ERROR"
	KindDuplicateRequest       Kind = "DUPLICATE_REQUEST"
	KindIdempotencyMismatch    Kind = "IDEMPOTENCY_KEY_REUSED"
	KindReconciliationConflict Kind = "RECONCILIATION_CONFLICT"
	KindConflict               Kind = "CONFLICT"
	KindInternal               Kind = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus int
	Slug       string
}

var metadataByKind = map[Kind]Metadata{
	KindValidation:             {HTTPStatus: http.StatusBadRequest, Slug: "request/validation-failed"},
	KindNotFound:               {HTTPStatus: http.StatusNotFound, Slug: "resource/not-found"},
	KindInsufficientFunds:      {HTTPStatus: http.StatusUnprocessableEntity, Slug: "wallet/insufficient-funds"},
	KindProvider:               {HTTPStatus: http.StatusBadGateway, Slug: "provider/request-failed"},
	KindDuplicateRequest:       {HTTPStatus: http.StatusOK, Slug: "idempotency/replay"},
	KindIdempotencyMismatch:    {HTTPStatus: http.StatusConflict, Slug: "idempotency/key-conflict"},
	KindReconciliationConflict: {HTTPStatus: http.StatusConflict, Slug: "purchase/reconciliation-conflict"},
	KindConflict:               {HTTPStatus: http.StatusConflict, Slug: "resource/conflict"},
	KindInternal:               {HTTPStatus: http.StatusInternalServerError, Slug: "internal-server-error"},
}

// MetadataFor returns the HTTP mapping for a kind.
func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

// Error is a kinded engine error.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind
}

var (
	ErrValidation             = New(KindValidation, "validation failed")
	ErrNotFound               = New(KindNotFound, "not found")
	ErrInsufficientFunds      = New(KindInsufficientFunds, "insufficient wallet balance")
	ErrProvider               = New(KindProvider, "provider request failed")
	ErrIdempotencyMismatch    = New(KindIdempotencyMismatch, "idempotency key reused with a different request")
	ErrReconciliationConflict = New(KindReconciliationConflict, "callback conflicts with settled state")
)

// As extracts a kinded error from the chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind of err, or KindInternal when it carries none.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindInternal
}
