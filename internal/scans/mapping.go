package scans

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/rackscan/pkg/query"
	"github.com/JaimeStill/rackscan/pkg/repository"
)

const columns = `id, filename, content_type, size_bytes, storage_key, mode,
	location_count, item_count, matched_count, case_count, result, scanned_at`

var projection = query.
	NewProjectionMap("public", "scans", "s").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("storage_key", "StorageKey").
	Project("mode", "Mode").
	Project("location_count", "LocationCount").
	Project("item_count", "ItemCount").
	Project("matched_count", "MatchedCount").
	Project("case_count", "CaseCount").
	Project("result", "Result").
	Project("scanned_at", "ScannedAt")

var defaultSort = query.SortField{
	Field:      "ScannedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for scan queries.
// Nil fields are ignored. Filename uses case-insensitive contains matching;
// ScannedAfter and ScannedBefore are inclusive bounds.
type Filters struct {
	Mode          *string    `json:"mode,omitempty"`
	Filename      *string    `json:"filename,omitempty"`
	ScannedAfter  *time.Time `json:"scanned_after,omitempty"`
	ScannedBefore *time.Time `json:"scanned_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Mode", f.Mode).
		WhereContains("Filename", f.Filename).
		WhereAtLeast("ScannedAt", f.ScannedAfter).
		WhereAtMost("ScannedAt", f.ScannedBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Timestamps use RFC 3339; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("mode"); m != "" {
		f.Mode = &m
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if v := values.Get("scanned_after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.ScannedAfter = &t
		}
	}

	if v := values.Get("scanned_before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.ScannedBefore = &t
		}
	}

	return f
}

func scanScan(s repository.Scanner) (Scan, error) {
	var sc Scan
	var raw []byte

	err := s.Scan(
		&sc.ID,
		&sc.Filename,
		&sc.ContentType,
		&sc.SizeBytes,
		&sc.StorageKey,
		&sc.Mode,
		&sc.LocationCount,
		&sc.ItemCount,
		&sc.MatchedCount,
		&sc.CaseCount,
		&raw,
		&sc.ScannedAt,
	)
	if err != nil {
		return sc, err
	}

	if err := json.Unmarshal(raw, &sc.Result); err != nil {
		return sc, fmt.Errorf("unmarshal result: %w", err)
	}

	return sc, nil
}
