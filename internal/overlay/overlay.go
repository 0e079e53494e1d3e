// Package overlay translates a pipeline result into display surface
// coordinates for a renderer.
package overlay

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

// ErrInvalidSurface is returned for non-positive surface dimensions.
var ErrInvalidSurface = errors.New("invalid surface dimensions")

// Box outlines one detected marking. Corners run clockwise from top-left.
type Box struct {
	Kind    markings.Kind     `json:"kind"`
	Payload string            `json:"payload"`
	Corners [4]geometry.Point `json:"corners"`
}

// Link connects an item's middle-bottom point to the middle-top point of
// its location.
type Link struct {
	Item     string         `json:"item"`
	Location string         `json:"location"`
	From     geometry.Point `json:"from"`
	To       geometry.Point `json:"to"`
}

// Label lists a case's contents anchored at the middle-top of its region.
type Label struct {
	CaseName string         `json:"case_name"`
	SubItems []string       `json:"sub_items"`
	Anchor   geometry.Point `json:"anchor"`
}

// Overlay is a result expressed in surface space.
type Overlay struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Mode   pipeline.Mode `json:"mode"`
	Boxes  []Box         `json:"boxes"`
	Links  []Link        `json:"links"`
	Labels []Label       `json:"labels"`
}

// Build converts result into an Overlay for a width × height surface.
func Build(result *pipeline.Result, width, height float64) (Overlay, error) {
	if width <= 0 || height <= 0 {
		return Overlay{}, fmt.Errorf("%w: %vx%v", ErrInvalidSurface, width, height)
	}

	o := Overlay{
		Width:  width,
		Height: height,
		Mode:   result.Mode,
		Boxes:  make([]Box, 0, len(result.Locations)+len(result.Items)),
		Links:  []Link{},
		Labels: make([]Label, 0, len(result.Cases)),
	}

	for _, d := range result.Locations {
		o.Boxes = append(o.Boxes, box(d, width, height))
	}
	for _, d := range result.Items {
		o.Boxes = append(o.Boxes, box(d, width, height))
	}

	for _, m := range result.Matches {
		loc, ok := result.Location(m)
		if !ok || m.Item >= len(result.Items) {
			continue
		}
		item := result.Items[m.Item]

		o.Links = append(o.Links, Link{
			Item:     item.Payload,
			Location: loc.Payload,
			From:     geometry.ToSurface(item.Quad.MiddleBottom(), width, height),
			To:       geometry.ToSurface(loc.Quad.MiddleTop(), width, height),
		})
	}

	for _, c := range result.Cases {
		o.Labels = append(o.Labels, Label{
			CaseName: c.CaseName,
			SubItems: c.SubItems,
			Anchor:   geometry.ToSurface(c.Region.MiddleTop(), width, height),
		})
	}

	return o, nil
}

func box(d markings.Detection, width, height float64) Box {
	return Box{
		Kind:    d.Kind(),
		Payload: d.Payload,
		Corners: geometry.QuadToSurface(d.Quad, width, height).Corners(),
	}
}
