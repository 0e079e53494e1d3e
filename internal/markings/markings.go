// Package markings models the barcode and QR markings detected in a rack
// photograph and classifies each one as a rack location or an item.
package markings

import (
	"strings"

	"github.com/JaimeStill/rackscan/pkg/geometry"
)

// LocationDelimiters is the exact number of '-' characters that makes a
// payload a location label (four fields, e.g. "AISLE-BAY-LEVEL-SLOT").
const LocationDelimiters = 3

// Kind identifies what a marking labels.
type Kind string

// Marking kinds.
const (
	KindLocation Kind = "location"
	KindItem     Kind = "item"
)

// Detection is one decoded marking and the region it occupies in the image.
// Quad is expressed in normalized detection space.
type Detection struct {
	Payload string        `json:"payload"`
	Quad    geometry.Quad `json:"quad"`
}

// Kind classifies the detection's payload.
func (d Detection) Kind() Kind {
	return Classify(d.Payload)
}

// Classify reports KindLocation when payload contains exactly
// LocationDelimiters '-' characters, and KindItem for every other string,
// including the empty string.
func Classify(payload string) Kind {
	if strings.Count(payload, "-") == LocationDelimiters {
		return KindLocation
	}
	return KindItem
}

// Partition splits detections into locations and items. Each partition keeps
// the relative order of the input.
func Partition(detections []Detection) (locations, items []Detection) {
	for _, d := range detections {
		switch d.Kind() {
		case KindLocation:
			locations = append(locations, d)
		default:
			items = append(items, d)
		}
	}
	return locations, items
}
