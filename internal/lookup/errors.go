package lookup

import "errors"

// ErrService indicates the contents service returned an unusable response.
var ErrService = errors.New("contents service error")
