package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/rackscan/pkg/query"
)

const selectScans = "SELECT s.id, s.mode, s.filename, s.scanned_at FROM public.scans s"

func scansProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "scans", "s").
		Project("id", "ID").
		Project("mode", "Mode").
		Project("filename", "Filename").
		Project("scanned_at", "ScannedAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := scansProjection()

	if got := p.Table(); got != "public.scans s" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Columns(); got != "s.id, s.mode, s.filename, s.scanned_at" {
		t.Errorf("Columns() = %q", got)
	}

	for view, want := range map[string]string{
		"ScannedAt": "s.scanned_at",
		"scannedat": "s.scanned_at",
		"MODE":      "s.mode",
		"missing":   "",
	} {
		got, ok := p.Column(view)
		if got != want || ok != (want != "") {
			t.Errorf("Column(%q) = %q, %v", view, got, ok)
		}
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		input string
		want  []query.SortField
	}{
		{"", nil},
		{"mode", []query.SortField{{Field: "mode"}}},
		{"-scannedAt", []query.SortField{{Field: "scannedAt", Descending: true}}},
		{" mode , -scannedAt ", []query.SortField{{Field: "mode"}, {Field: "scannedAt", Descending: true}}},
		{"mode,,filename", []query.SortField{{Field: "mode"}, {Field: "filename"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if tt.want == nil && got != nil {
				t.Errorf("ParseSortFields(%q) should be nil", tt.input)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	newest := query.SortField{Field: "ScannedAt", Descending: true}

	tests := []struct {
		name     string
		build    func(*query.Builder) (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select all",
			build:   (*query.Builder).Build,
			wantSQL: selectScans + " ORDER BY s.scanned_at DESC",
		},
		{
			name:    "count ignores ordering",
			build:   (*query.Builder).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.scans s",
		},
		{
			name: "page offset",
			build: func(b *query.Builder) (string, []any) {
				return b.BuildPage(3, 25)
			},
			wantSQL: selectScans + " ORDER BY s.scanned_at DESC LIMIT 25 OFFSET 50",
		},
		{
			name: "single by id",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Mode", "xray").BuildSingle("ID", "abc-123")
			},
			wantSQL:  selectScans + " WHERE s.id = $1",
			wantArgs: []any{"abc-123"},
		},
		{
			name: "equals and contains",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Mode", "xray").WhereContains("Filename", ptr("aisle")).Build()
			},
			wantSQL:  selectScans + " WHERE s.mode = $1 AND s.filename ILIKE $2 ORDER BY s.scanned_at DESC",
			wantArgs: []any{"xray", "%aisle%"},
		},
		{
			name: "nil and empty filters skipped",
			build: func(b *query.Builder) (string, []any) {
				var since *string
				return b.WhereEquals("Mode", nil).
					WhereAtLeast("ScannedAt", since).
					WhereContains("Filename", ptr("")).
					WhereContains("Filename", nil).
					WhereSearch(nil, "Filename").
					BuildCount()
			},
			wantSQL: "SELECT COUNT(*) FROM public.scans s",
		},
		{
			name: "time range",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereAtLeast("ScannedAt", "2026-01-01").WhereAtMost("ScannedAt", "2026-02-01").BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.scans s WHERE s.scanned_at >= $1 AND s.scanned_at <= $2",
			wantArgs: []any{"2026-01-01", "2026-02-01"},
		},
		{
			name: "search across fields",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Mode", "barcode").WhereSearch(ptr("rack"), "Filename", "ID").BuildPage(1, 10)
			},
			wantSQL:  selectScans + " WHERE s.mode = $1 AND (s.filename ILIKE $2 OR s.id ILIKE $3) ORDER BY s.scanned_at DESC LIMIT 10 OFFSET 0",
			wantArgs: []any{"barcode", "%rack%", "%rack%"},
		},
		{
			name: "explicit ordering",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields(query.ParseSortFields("mode,-filename")).Build()
			},
			wantSQL: selectScans + " ORDER BY s.mode ASC, s.filename DESC",
		},
		{
			name: "unknown sort fields fall back to default",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields([]query.SortField{{Field: "filename; DROP TABLE scans"}}).Build()
			},
			wantSQL: selectScans + " ORDER BY s.scanned_at DESC",
		},
		{
			name: "unknown sort fields dropped from list",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields([]query.SortField{{Field: "bogus"}, {Field: "FILENAME"}}).Build()
			},
			wantSQL: selectScans + " ORDER BY s.filename ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build(query.NewBuilder(scansProjection(), newest))
			if sql != tt.wantSQL {
				t.Errorf("sql:\ngot  %s\nwant %s", sql, tt.wantSQL)
			}
			if !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuilderWithoutDefaultSort(t *testing.T) {
	sql, _ := query.NewBuilder(scansProjection()).Build()
	if sql != selectScans {
		t.Errorf("sql = %q, want %q", sql, selectScans)
	}
}

func TestBuilderWhereJSONContains(t *testing.T) {
	p := query.NewProjectionMap("public", "case_contents", "cc").
		Project("case_name", "CaseName").
		Project("sub_items", "SubItems")

	sql, args := query.NewBuilder(p).
		WhereJSONContains("SubItems", []string{"SKU-1"}).
		WhereJSONContains("SubItems", nil).
		Build()

	wantSQL := "SELECT cc.case_name, cc.sub_items FROM public.case_contents cc WHERE cc.sub_items @> $1::jsonb"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if !slices.Equal(args, []any{`["SKU-1"]`}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderUnprojectedFilterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unprojected filter field")
		}
	}()

	query.NewBuilder(scansProjection()).WhereEquals("result", "{}")
}
