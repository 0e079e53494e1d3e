// Package enrichment fills per-case sub-item contents, one case at a time.
//
// Enrich walks the case sequence with an explicit cursor. The lookup for case
// k+1 is not issued until the lookup for case k has returned and its result
// has replaced the record at index k, so cases finish in positional order.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

// CaseContents is the enrichment record for one item marking.
type CaseContents struct {
	CaseName string        `json:"case_name"`
	Region   geometry.Quad `json:"region"`
	SubItems []string      `json:"sub_items"`
}

// NewCases creates one record per item with empty SubItems, in item order.
func NewCases(items []markings.Detection) []CaseContents {
	cases := make([]CaseContents, len(items))
	for i, item := range items {
		cases[i] = CaseContents{
			CaseName: item.Payload,
			Region:   item.Quad,
			SubItems: []string{},
		}
	}
	return cases
}

// Lookup resolves the sub-items stored in a case.
type Lookup interface {
	LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error)

// LookupContents calls f.
func (f LookupFunc) LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
	return f(ctx, caseName, region)
}

// Strategy selects how Enrich reacts to a failed lookup.
type Strategy string

const (
	// FailFast stops the run at the first failed lookup.
	FailFast Strategy = "fail"
	// Degrade records empty SubItems for the failed case and continues.
	Degrade Strategy = "degrade"
)

// ParseStrategy maps a configuration value to a Strategy.
// The empty string selects FailFast.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", FailFast:
		return FailFast, nil
	case Degrade:
		return Degrade, nil
	default:
		return "", fmt.Errorf("unknown lookup failure strategy %q", s)
	}
}

// Options tunes an Enrich run. The zero value is valid.
type Options struct {
	Strategy Strategy

	// OnAdvance is called with the cursor before each lookup is issued.
	OnAdvance func(cursor int)

	Logger *slog.Logger
}

// Enrich replaces the SubItems of every case with the lookup result and
// returns the sequence. The input slice is updated in place.
//
// Context cancellation stops the run under either strategy and returns the
// context error.
func Enrich(ctx context.Context, cases []CaseContents, lookup Lookup, opts Options) ([]CaseContents, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for cursor := 0; cursor < len(cases); cursor++ {
		if err := ctx.Err(); err != nil {
			return cases, err
		}

		if opts.OnAdvance != nil {
			opts.OnAdvance(cursor)
		}

		c := cases[cursor]
		subItems, err := lookup.LookupContents(ctx, c.CaseName, c.Region)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cases, ctxErr
			}

			if opts.Strategy != Degrade {
				return cases, fmt.Errorf("%w: case %s: %w", ErrLookupFailed, c.CaseName, err)
			}

			logger.WarnContext(
				ctx, "contents lookup failed, continuing with empty contents",
				"case", c.CaseName,
				"cursor", cursor,
				"error", err,
			)
			subItems = nil
		}

		if subItems == nil {
			subItems = []string{}
		}

		cases[cursor] = CaseContents{
			CaseName: c.CaseName,
			Region:   c.Region,
			SubItems: subItems,
		}
	}

	return cases, nil
}
