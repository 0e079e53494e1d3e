package scans

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/rackscan/internal/detector"
	"github.com/JaimeStill/rackscan/internal/overlay"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/storage"
)

// Domain errors for scan operations.
var (
	ErrNotFound     = errors.New("scan not found")
	ErrDuplicate    = errors.New("scan already exists")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrInvalidID    = errors.New("invalid scan id")
	ErrNoResult     = errors.New("no completed analysis")
)

// MapHTTPStatus maps scan, pipeline, and collaborator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNoResult),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, detector.ErrUnsupportedImage),
		errors.Is(err, pipeline.ErrInvalidMode),
		errors.Is(err, overlay.ErrInvalidSurface):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDetectionFailed), errors.Is(err, pipeline.ErrLookupFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
