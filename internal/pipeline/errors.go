package pipeline

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/rackscan/internal/enrichment"
)

// Sentinel errors for pipeline operations.
var (
	ErrBusy            = errors.New("pipeline is busy")
	ErrDetectionFailed = errors.New("detection failed")
	ErrInvalidMode     = errors.New("invalid pipeline mode")
)

// ErrLookupFailed is returned when an X-ray run stops on a failed lookup.
var ErrLookupFailed = enrichment.ErrLookupFailed

func invalidMode(m Mode) error {
	return fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
}
