// Package errs holds the error kinds shared by the stores, services and
// handlers. Kinds are sentinels; *Error adds a message that is safe to show
// to API clients.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrAuth                 = errors.New("authentication error")
	ErrConflict             = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrProvider             = errors.New("market data provider error")
	ErrStorage              = errors.New("storage error")
)

type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap keeps cause reachable through errors.Is/As while Message stays the
// client facing text.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Validation(msg string) *Error { return New(ErrValidation, msg) }

func Auth(msg string) *Error { return New(ErrAuth, msg) }

func Conflict(msg string) *Error { return New(ErrConflict, msg) }

func NotFound(msg string) *Error { return New(ErrNotFound, msg) }

// HTTPStatus maps an error kind to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientHoldings):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a client may see. Storage and unknown errors
// never leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(e.Kind, ErrStorage) {
		return e.Message
	}
	if errors.Is(err, ErrProvider) {
		return "Failed to fetch stock data"
	}
	return "Internal server error"
}
