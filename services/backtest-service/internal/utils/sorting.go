package utils

import "strings"

// Sort directions
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// NormalizeSortDirection normalizes a direction to SortAsc or SortDesc,
// using fallback for anything else
func NormalizeSortDirection(direction, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return fallback
	}
}

// NormalizeSortField returns field when it is one of allowed, otherwise the
// first allowed field
func NormalizeSortField(field string, allowed ...string) string {
	field = strings.ToLower(strings.TrimSpace(field))
	for _, a := range allowed {
		if field == a {
			return a
		}
	}
	if len(allowed) == 0 {
		return ""
	}
	return allowed[0]
}
