package contents

import (
	"errors"
	"net/http"
)

// Domain errors for case contents operations.
var (
	ErrNotFound        = errors.New("case contents not found")
	ErrDuplicate       = errors.New("case contents already exist")
	ErrInvalidCase     = errors.New("case name required")
	ErrInvalidContents = errors.New("sub-items must be non-empty")
)

// MapHTTPStatus maps contents domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCase), errors.Is(err, ErrInvalidContents):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
