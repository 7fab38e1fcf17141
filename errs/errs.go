// Package errs defines the error taxonomy shared by the marketplace core.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrExternalService = errors.New("external service failure")
)

// InsufficientInventory reports a cart add that would exceed a crop's
// advertised quantity. Merged is true when the overflow comes from
// combining with an existing cart entry.
type InsufficientInventory struct {
	Available float64
	Unit      string
	Merged    bool
}

func (e *InsufficientInventory) Error() string {
	if e.Merged {
		return fmt.Sprintf("Cannot add more. Total would exceed available quantity of %g %s", e.Available, e.Unit)
	}
	return fmt.Sprintf("Only %g %s available", e.Available, e.Unit)
}

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func Invalid(what string) error {
	return fmt.Errorf("%s: %w", what, ErrInvalidArgument)
}

func Conflict(what string) error {
	return fmt.Errorf("%s: %w", what, ErrConflict)
}

// Status maps a taxonomy error to an HTTP status code.
func Status(err error) int {
	var inv *InsufficientInventory
	switch {
	case errors.As(err, &inv):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
