package contents

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/rackscan/pkg/query"
	"github.com/JaimeStill/rackscan/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "case_contents", "cc").
	Project("case_name", "CaseName").
	Project("sub_items", "SubItems").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "CaseName"}

// Filters narrows contents queries. Item matches cases holding that sub-item.
type Filters struct {
	Item *string `json:"item,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Item == nil || *f.Item == "" {
		return b
	}
	return b.WhereJSONContains("SubItems", []string{*f.Item})
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if item := values.Get("item"); item != "" {
		f.Item = &item
	}
	return f
}

func scanCase(s repository.Scanner) (Case, error) {
	var c Case
	var raw []byte

	if err := s.Scan(&c.CaseName, &raw, &c.UpdatedAt); err != nil {
		return c, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.SubItems); err != nil {
			return c, fmt.Errorf("unmarshal sub_items: %w", err)
		}
	}

	if c.SubItems == nil {
		c.SubItems = []string{}
	}

	return c, nil
}
