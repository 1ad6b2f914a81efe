package intent

import (
	"strconv"
	"strings"
)

// Params is the structured parameter set extracted for an action. It may be
// empty (extraction failure) but is never nil; downstream handlers must
// treat every field as optionally absent.
type Params map[string]any

// String returns the named parameter as a trimmed string, or "" when absent
// or not string-shaped.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// Int returns the named parameter as an int, tolerating numeric strings.
// Absent or unparseable values yield 0.
func (p Params) Int(key string) int {
	v, ok := p[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
