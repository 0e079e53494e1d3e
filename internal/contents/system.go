package contents

import (
	"context"

	"github.com/JaimeStill/rackscan/pkg/geometry"
	"github.com/JaimeStill/rackscan/pkg/pagination"
)

// System defines the contract for case contents operations.
// It also satisfies enrichment.Lookup.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Case], error)
	Find(ctx context.Context, caseName string) (*Case, error)
	Save(ctx context.Context, caseName string, cmd SaveCommand) (*Case, error)
	Delete(ctx context.Context, caseName string) error

	// LookupContents returns the sub-items of caseName, or an empty list
	// when the case is unknown.
	LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error)
}
