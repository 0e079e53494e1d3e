package enrichment

import "errors"

// ErrLookupFailed wraps a lookup error that aborted an enrichment run.
var ErrLookupFailed = errors.New("contents lookup failed")
