// Package contents stores the sub-items known to sit inside each case and
// serves them as the default lookup source for X-ray enrichment.
package contents

import (
	"strings"
	"time"
)

// Case is the stored contents record of a single case.
type Case struct {
	CaseName  string    `json:"case_name"`
	SubItems  []string  `json:"sub_items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveCommand replaces the sub-items of a case.
type SaveCommand struct {
	SubItems []string `json:"sub_items"`
}

func (c SaveCommand) normalize() ([]string, error) {
	items := make([]string, 0, len(c.SubItems))
	for _, item := range c.SubItems {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, ErrInvalidContents
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeCaseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidCase
	}
	return name, nil
}
