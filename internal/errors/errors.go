package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidDestination Kind = "INVALID_DESTINATION"
	KindIO                 Kind = "IO_ERROR"
	KindImmutableTarget    Kind = "IMMUTABLE_TARGET"
	KindBackwardsMove      Kind = "BACKWARDS_MOVE"
	KindTransaction        Kind = "TRANSACTION_ERROR"
	KindSerialization      Kind = "SERIALIZATION_ERROR"
	KindForgetCurrent      Kind = "CANNOT_FORGET_CURRENT"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a status code for the API layer.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput, KindInvalidDestination:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindImmutableTarget, KindBackwardsMove, KindForgetCurrent:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. A nil cause
// behaves like New.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidDestination(format string, args ...any) *Error {
	return New(KindInvalidDestination, format, args...)
}

func IO(err error, format string, args ...any) *Error {
	return Wrap(KindIO, err, format, args...)
}

func ImmutableTarget(format string, args ...any) *Error {
	return New(KindImmutableTarget, format, args...)
}

func BackwardsMove(format string, args ...any) *Error {
	return New(KindBackwardsMove, format, args...)
}

func Transaction(err error, format string, args ...any) *Error {
	return Wrap(KindTransaction, err, format, args...)
}

func Serialization(err error, format string, args ...any) *Error {
	return Wrap(KindSerialization, err, format, args...)
}

func ForgetCurrent(name string) *Error {
	return New(KindForgetCurrent, "cannot forget current workspace %q", name)
}

// FromError returns err as an *Error, treating unclassified errors as IO.
func FromError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindIO, Message: err.Error(), Err: err}
}

// KindOf reports the kind carried by err, or "" when err has none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
