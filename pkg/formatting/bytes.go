// Package formatting converts byte counts to and from the human-readable
// sizes used in configuration and error messages.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Base-1024 units. Anything past EB does not fit in an int64.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above 1, e.g. "20 MB". precision is the number of decimals; negative
// values mean none. Zero is always "0 B".
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}

	size := float64(n)
	i := 0
	for math.Abs(size) >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return strconv.FormatFloat(size, 'f', max(precision, 0), 64) + " " + units[i]
}

// ParseBytes reads sizes such as "20MB", "1.5 kb", or "2048". A missing
// unit means bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	end := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[end:]))
	if unit == "" {
		unit = "B"
	}
	exp := slices.Index(units, unit)
	if exp == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	bytes := value * math.Pow(1024, float64(exp))
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return int64(bytes), nil
}
