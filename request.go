package keyset

import "strings"

// NavDirection is the requested navigation direction relative to the anchor.
type NavDirection string

const (
	NavNext NavDirection = "next"
	NavPrev NavDirection = "prev"
)

// ParseNavDirection returns NavPrev for "prev" and NavNext otherwise.
func ParseNavDirection(s string) NavDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(NavPrev)) {
		return NavPrev
	}

	return NavNext
}

// Request holds the raw, transport-agnostic parameters of a page request.
// Sort and filter parameters are ignored once Cursor is set.
type Request struct {
	// Direction is "next" (default) or "prev".
	Direction string
	// Cursor is a token from a previous Page. Empty requests the first page.
	Cursor    string
	SortField string
	SortDir   string
	// PageSize of zero requests the pager default.
	PageSize int
	Filter   FilterParams
}
