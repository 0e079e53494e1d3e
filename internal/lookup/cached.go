package lookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/pkg/cache"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

// KeyPrefix namespaces cached lookup results.
const KeyPrefix = "contents:"

// Cached is a read-through cache in front of another lookup. Cache errors
// never fail a lookup; they are logged and the inner lookup is used.
type Cached struct {
	inner  enrichment.Lookup
	cache  cache.System
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps inner with c. Entries expire after ttl.
func NewCached(inner enrichment.Lookup, c cache.System, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("system", "lookup-cache"),
	}
}

// Key returns the cache key for caseName.
func Key(caseName string) string {
	return KeyPrefix + caseName
}

// LookupContents returns the cached sub-items of caseName or fetches and
// stores them.
func (c *Cached) LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
	var subItems []string
	hit, err := c.cache.Get(ctx, Key(caseName), &subItems)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "case", caseName, "error", err)
	}
	if hit {
		if subItems == nil {
			subItems = []string{}
		}
		return subItems, nil
	}

	subItems, err = c.inner.LookupContents(ctx, caseName, region)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, Key(caseName), subItems, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "case", caseName, "error", err)
	}

	return subItems, nil
}

// Invalidate drops the cached entry for caseName.
func (c *Cached) Invalidate(ctx context.Context, caseName string) error {
	return c.cache.Delete(ctx, Key(caseName))
}
