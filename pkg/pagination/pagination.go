package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// Ellipsis is the non-interactive placeholder entry in a page strip.
	Ellipsis = "..."
)

// Params holds pagination parameters extracted from a request.
// Page is 1-based; the first page is 1.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the 0-based row offset of the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the number of pages needed for count rows.
// A non-positive limit yields 0 pages.
func TotalPages(count, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// Entry is one element of a page strip: either a concrete page number or
// an ellipsis placeholder.
type Entry struct {
	Page     int    `json:"page,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Label    string `json:"label"`
}

func pageEntry(p, current int) Entry {
	return Entry{Page: p, Active: p == current, Label: strconv.Itoa(p)}
}

func gapEntry() Entry {
	return Entry{Ellipsis: true, Label: Ellipsis}
}

// Strip builds the sequence of page-number controls for the given 1-based
// current page. Windows collapse to ellipsis entries:
//
//	totalPages <= 5        -> 1 .. totalPages
//	current <= 3           -> 1 2 3 4 ... N
//	current >= N-2         -> 1 ... N-3 N-2 N-1 N
//	otherwise              -> 1 ... c-1 c c+1 ... N
func Strip(current, totalPages int) []Entry {
	if totalPages <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	var entries []Entry
	switch {
	case totalPages <= 5:
		for p := 1; p <= totalPages; p++ {
			entries = append(entries, pageEntry(p, current))
		}
	case current <= 3:
		for p := 1; p <= 4; p++ {
			entries = append(entries, pageEntry(p, current))
		}
		entries = append(entries, gapEntry(), pageEntry(totalPages, current))
	case current >= totalPages-2:
		entries = append(entries, pageEntry(1, current), gapEntry())
		for p := totalPages - 3; p <= totalPages; p++ {
			entries = append(entries, pageEntry(p, current))
		}
	default:
		entries = append(entries,
			pageEntry(1, current), gapEntry(),
			pageEntry(current-1, current), pageEntry(current, current), pageEntry(current+1, current),
			gapEntry(), pageEntry(totalPages, current))
	}
	return entries
}

// Control is the full pagination view model for a list page.
type Control struct {
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	TotalCount  int     `json:"totalCount"`
	TotalPages  int     `json:"totalPages"`
	Entries     []Entry `json:"entries"`
	HasPrevious bool    `json:"hasPrevious"`
	HasNext     bool    `json:"hasNext"`
}

// NewControl builds the pagination controls for a page of a list totalling
// count rows. Previous/next are disabled (false) at the boundaries so that
// out-of-range page changes are never emitted.
func NewControl(p Params, count int) Control {
	total := TotalPages(count, p.Limit)
	page := p.Page
	if total > 0 && page > total {
		page = total
	}
	return Control{
		Page:        page,
		Limit:       p.Limit,
		TotalCount:  count,
		TotalPages:  total,
		Entries:     Strip(page, total),
		HasPrevious: page > 1,
		HasNext:     page < total,
	}
}

// Clamp reports whether a requested 1-based page number is addressable and
// may be navigated to. Out-of-range requests are ignored by callers.
func (c Control) Clamp(page int) bool {
	return page >= 1 && page <= c.TotalPages
}
