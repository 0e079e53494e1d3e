package overlay_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/rackscan/internal/association"
	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/internal/overlay"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

func rect(x0, x1, bottom, top float64) geometry.Quad {
	return geometry.Quad{
		TopLeft:     geometry.Point{X: x0, Y: top},
		TopRight:    geometry.Point{X: x1, Y: top},
		BottomLeft:  geometry.Point{X: x0, Y: bottom},
		BottomRight: geometry.Point{X: x1, Y: bottom},
	}
}

func cycleCountResult() *pipeline.Result {
	return &pipeline.Result{
		Mode: pipeline.CycleCount,
		Locations: []markings.Detection{
			{Payload: "LOC-A-01-02", Quad: rect(0.25, 0.75, 0.125, 0.25)},
		},
		Items: []markings.Detection{
			{Payload: "LPN999", Quad: rect(0.25, 0.75, 0.5, 0.75)},
			{Payload: "LPN-ORPHAN", Quad: rect(0.25, 0.75, 0, 0.0625)},
		},
		Matches: []association.Match{
			{Item: 0, Location: 0},
			{Item: 1, Location: association.Unmatched},
		},
	}
}

func TestBuildCycleCount(t *testing.T) {
	o, err := overlay.Build(cycleCountResult(), 400, 800)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(o.Boxes) != 3 {
		t.Fatalf("boxes = %d, want 3", len(o.Boxes))
	}

	loc := o.Boxes[0]
	if loc.Kind != markings.KindLocation || loc.Payload != "LOC-A-01-02" {
		t.Errorf("boxes[0] = %+v", loc)
	}
	wantCorners := [4]geometry.Point{
		{X: 100, Y: 600},
		{X: 300, Y: 600},
		{X: 300, Y: 700},
		{X: 100, Y: 700},
	}
	if loc.Corners != wantCorners {
		t.Errorf("corners = %v, want %v", loc.Corners, wantCorners)
	}

	if o.Boxes[1].Kind != markings.KindItem {
		t.Errorf("boxes[1].Kind = %s, want item", o.Boxes[1].Kind)
	}

	if len(o.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(o.Links))
	}
	link := o.Links[0]
	if link.Item != "LPN999" || link.Location != "LOC-A-01-02" {
		t.Errorf("link = %+v", link)
	}
	if link.From != (geometry.Point{X: 200, Y: 400}) {
		t.Errorf("From = %v, want (200, 400)", link.From)
	}
	if link.To != (geometry.Point{X: 200, Y: 600}) {
		t.Errorf("To = %v, want (200, 600)", link.To)
	}

	if len(o.Labels) != 0 {
		t.Errorf("labels = %d, want 0", len(o.Labels))
	}
}

func TestBuildXray(t *testing.T) {
	result := &pipeline.Result{
		Mode: pipeline.Xray,
		Items: []markings.Detection{
			{Payload: "CASE-1", Quad: rect(0.25, 0.75, 0.5, 0.75)},
		},
		Cases: []enrichment.CaseContents{
			{CaseName: "CASE-1", Region: rect(0.25, 0.75, 0.5, 0.75), SubItems: []string{"A", "B"}},
		},
	}

	o, err := overlay.Build(result, 100, 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(o.Labels) != 1 {
		t.Fatalf("labels = %d, want 1", len(o.Labels))
	}
	label := o.Labels[0]
	if label.CaseName != "CASE-1" || !slices.Equal(label.SubItems, []string{"A", "B"}) {
		t.Errorf("label = %+v", label)
	}
	if label.Anchor != (geometry.Point{X: 50, Y: 25}) {
		t.Errorf("Anchor = %v, want (50, 25)", label.Anchor)
	}
	if len(o.Links) != 0 {
		t.Errorf("links = %d, want 0", len(o.Links))
	}
}

func TestBuildInvalidSurface(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
	}{
		{"zero width", 0, 100},
		{"zero height", 100, 0},
		{"negative", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := overlay.Build(cycleCountResult(), tt.width, tt.height)
			if !errors.Is(err, overlay.ErrInvalidSurface) {
				t.Errorf("err = %v, want ErrInvalidSurface", err)
			}
		})
	}
}
