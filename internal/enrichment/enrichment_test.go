package enrichment_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

func items(names ...string) []markings.Detection {
	out := make([]markings.Detection, len(names))
	for i, n := range names {
		out[i] = markings.Detection{
			Payload: n,
			Quad: geometry.Quad{
				TopLeft:    geometry.Point{X: float64(i) / 10, Y: 0.5},
				BottomLeft: geometry.Point{X: float64(i) / 10, Y: 0.25},
			},
		}
	}
	return out
}

type recorder struct {
	mu       sync.Mutex
	inFlight int
	calls    []string
	overlap  bool
}

func (r *recorder) LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > 1 {
		r.overlap = true
	}
	r.calls = append(r.calls, caseName)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	return []string{caseName + "/a", caseName + "/b"}, nil
}

func TestNewCases(t *testing.T) {
	src := items("LPN1", "LPN2")
	cases := enrichment.NewCases(src)

	if len(cases) != 2 {
		t.Fatalf("len = %d, want 2", len(cases))
	}

	for i, c := range cases {
		if c.CaseName != src[i].Payload {
			t.Errorf("cases[%d].CaseName = %s, want %s", i, c.CaseName, src[i].Payload)
		}
		if c.Region != src[i].Quad {
			t.Errorf("cases[%d].Region not copied from detection", i)
		}
		if c.SubItems == nil || len(c.SubItems) != 0 {
			t.Errorf("cases[%d].SubItems = %v, want empty", i, c.SubItems)
		}
	}
}

func TestEnrichStrictOrder(t *testing.T) {
	cases := enrichment.NewCases(items("C0", "C1", "C2", "C3"))
	rec := &recorder{}

	var cursors []int
	var lookup enrichment.LookupFunc = func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
		idx := slices.IndexFunc(cases, func(c enrichment.CaseContents) bool { return c.CaseName == caseName })
		for j := idx; j < len(cases); j++ {
			if len(cases[j].SubItems) != 0 {
				t.Errorf("case %d already written before lookup %d returned", j, idx)
			}
		}
		for j := range idx {
			if len(cases[j].SubItems) == 0 {
				t.Errorf("case %d not written before lookup %d started", j, idx)
			}
		}
		return rec.LookupContents(ctx, caseName, region)
	}

	got, err := enrichment.Enrich(context.Background(), cases, lookup, enrichment.Options{
		OnAdvance: func(cursor int) { cursors = append(cursors, cursor) },
	})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if rec.overlap {
		t.Error("lookups overlapped")
	}

	if want := []string{"C0", "C1", "C2", "C3"}; !slices.Equal(rec.calls, want) {
		t.Errorf("call order = %v, want %v", rec.calls, want)
	}

	if want := []int{0, 1, 2, 3}; !slices.Equal(cursors, want) {
		t.Errorf("cursors = %v, want %v", cursors, want)
	}

	for i, c := range got {
		want := []string{c.CaseName + "/a", c.CaseName + "/b"}
		if !slices.Equal(c.SubItems, want) {
			t.Errorf("got[%d].SubItems = %v, want %v", i, c.SubItems, want)
		}
	}
}

func TestEnrichEmpty(t *testing.T) {
	lookup := enrichment.LookupFunc(func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
		t.Fatal("lookup should not be called")
		return nil, nil
	})

	got, err := enrichment.Enrich(context.Background(), nil, lookup, enrichment.Options{})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestEnrichNilResultBecomesEmpty(t *testing.T) {
	cases := enrichment.NewCases(items("C0"))
	lookup := enrichment.LookupFunc(func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
		return nil, nil
	})

	got, err := enrichment.Enrich(context.Background(), cases, lookup, enrichment.Options{})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if got[0].SubItems == nil {
		t.Error("SubItems should be an empty slice, not nil")
	}
}

func failing(bad string) enrichment.LookupFunc {
	return func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
		if caseName == bad {
			return nil, fmt.Errorf("lookup service unavailable")
		}
		return []string{caseName + "/x"}, nil
	}
}

func TestEnrichFailFast(t *testing.T) {
	cases := enrichment.NewCases(items("C0", "C1", "C2"))

	var cursors []int
	_, err := enrichment.Enrich(context.Background(), cases, failing("C1"), enrichment.Options{
		OnAdvance: func(cursor int) { cursors = append(cursors, cursor) },
	})

	if !errors.Is(err, enrichment.ErrLookupFailed) {
		t.Fatalf("err = %v, want ErrLookupFailed", err)
	}

	if want := []int{0, 1}; !slices.Equal(cursors, want) {
		t.Errorf("cursors = %v, want %v", cursors, want)
	}
}

func TestEnrichDegrade(t *testing.T) {
	cases := enrichment.NewCases(items("C0", "C1", "C2"))

	got, err := enrichment.Enrich(context.Background(), cases, failing("C1"), enrichment.Options{
		Strategy: enrichment.Degrade,
	})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	want := [][]string{{"C0/x"}, {}, {"C2/x"}}
	for i, c := range got {
		if !slices.Equal(c.SubItems, want[i]) {
			t.Errorf("got[%d].SubItems = %v, want %v", i, c.SubItems, want[i])
		}
	}
}

func TestEnrichCancelled(t *testing.T) {
	tests := []struct {
		name     string
		strategy enrichment.Strategy
	}{
		{"fail fast", enrichment.FailFast},
		{"degrade", enrichment.Degrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cases := enrichment.NewCases(items("C0", "C1", "C2"))
			calls := 0
			lookup := enrichment.LookupFunc(func(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
				calls++
				cancel()
				return nil, ctx.Err()
			})

			_, err := enrichment.Enrich(ctx, cases, lookup, enrichment.Options{Strategy: tt.strategy})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("err = %v, want context.Canceled", err)
			}
			if errors.Is(err, enrichment.ErrLookupFailed) {
				t.Error("cancellation should not be reported as a lookup failure")
			}
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    enrichment.Strategy
		wantErr bool
	}{
		{"", enrichment.FailFast, false},
		{"fail", enrichment.FailFast, false},
		{"degrade", enrichment.Degrade, false},
		{"retry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := enrichment.ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
