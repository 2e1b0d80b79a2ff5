package domain

import (
	"strconv"
	"strings"
)

// InitialVersion is the number of the first version of every entry
const InitialVersion = "1.0.0"

// IsSignificantChange reports whether an edit alters the title or body of the
// current version. Tag-only and date-only edits are not significant.
// A missing current version always counts as significant.
func IsSignificantChange(current *EntryVersion, title, body string) bool {
	if current == nil {
		return true
	}
	return current.Title != title || current.Body != body
}

// NextVersion increments the patch component of a major.minor.patch number.
//
// Malformed input is not an error: when there are not exactly three
// components, or the patch does not parse as an integer, ".1" is appended to
// the whole string ("1.0" -> "1.0.1", "1.0.x" -> "1.0.x.1").
func NextVersion(current string) string {
	parts := strings.Split(current, ".")
	if len(parts) != 3 {
		return current + ".1"
	}
	patch, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return current + ".1"
	}
	parts[2] = strconv.FormatInt(patch+1, 10)
	return strings.Join(parts, ".")
}
