package pipeline

import (
	"context"
	"time"

	"github.com/JaimeStill/rackscan/internal/association"
	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/internal/markings"
)

// Image is a photo submitted for analysis.
type Image struct {
	Data        []byte
	ContentType string
}

// Detector finds markings in a photo. Returned quads are in normalized
// detection space.
type Detector interface {
	Detect(ctx context.Context, img Image) ([]markings.Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img Image) ([]markings.Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img Image) ([]markings.Detection, error) {
	return f(ctx, img)
}

// Result is the outcome of a run that reached Ready. Matches index into Items
// and Locations. Cases is populated in Xray mode, Matches in CycleCount mode.
type Result struct {
	Mode        Mode                      `json:"mode"`
	Locations   []markings.Detection      `json:"locations"`
	Items       []markings.Detection      `json:"items"`
	Matches     []association.Match       `json:"matches"`
	Cases       []enrichment.CaseContents `json:"cases"`
	CompletedAt time.Time                 `json:"completed_at"`
}

func newResult(mode Mode) *Result {
	return &Result{
		Mode:      mode,
		Locations: []markings.Detection{},
		Items:     []markings.Detection{},
		Matches:   []association.Match{},
		Cases:     []enrichment.CaseContents{},
	}
}

// MatchedCount returns the number of items associated with a location.
func (r *Result) MatchedCount() int {
	return association.Count(r.Matches)
}

// Location returns the location matched to m, if any.
func (r *Result) Location(m association.Match) (markings.Detection, bool) {
	if !m.Matched() || m.Location >= len(r.Locations) {
		return markings.Detection{}, false
	}
	return r.Locations[m.Location], true
}
