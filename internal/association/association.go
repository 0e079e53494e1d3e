// Package association pairs each item marking with the rack location label
// that identifies the slot it sits in.
//
// A location qualifies for an item only when the location's top edge lies
// strictly below the item's bottom edge in detection space (labels hang on the
// beam under the goods they identify). Among qualifying locations the one whose
// midpoint is closest to the item's middle-bottom point wins; when distances
// tie, the location encountered first keeps the match.
package association

import (
	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

// Unmatched is the Location index of a Match with no qualifying location.
const Unmatched = -1

// Match references an item and its associated location by their indices in
// the sequences passed to Associate.
type Match struct {
	Item     int `json:"item"`
	Location int `json:"location"`
}

// Matched reports whether a qualifying location was found.
func (m Match) Matched() bool {
	return m.Location != Unmatched
}

// Associate returns one Match per item, in item order.
func Associate(items, locations []markings.Detection) []Match {
	matches := make([]Match, len(items))
	for i, item := range items {
		matches[i] = Match{
			Item:     i,
			Location: nearest(item, locations),
		}
	}
	return matches
}

// Qualifies reports whether location may be associated with item.
func Qualifies(item, location markings.Detection) bool {
	return item.Quad.BottomLeft.Y > location.Quad.TopLeft.Y
}

func nearest(item markings.Detection, locations []markings.Detection) int {
	anchor := item.Quad.MiddleBottom()
	best := Unmatched
	var bestDist float64

	for j, loc := range locations {
		if !Qualifies(item, loc) {
			continue
		}

		d := geometry.SquaredDistance(anchor, loc.Quad.Midpoint())
		if best == Unmatched || d < bestDist {
			best = j
			bestDist = d
		}
	}

	return best
}

// Count returns the number of matched items.
func Count(matches []Match) int {
	n := 0
	for _, m := range matches {
		if m.Matched() {
			n++
		}
	}
	return n
}
