package pagination

import (
	"net/http"
	"strconv"
)

// DefaultPageSize is the number of stores shown per listing page.
const DefaultPageSize = 4

// ParsePage parses a 1-based page number. Absent, non-numeric, zero and
// negative values all resolve to page 1.
func ParsePage(raw string) int {
	if raw == "" {
		return 1
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// PageFromRequest reads the "page" query parameter.
func PageFromRequest(r *http.Request) int {
	return ParsePage(r.URL.Query().Get("page"))
}

// Plan is the arithmetic for one listing page.
type Plan struct {
	Page      int
	PageSize  int
	Skip      int
	Total     int
	PageCount int
}

// Calculate builds the plan for page given the total row count. A page or
// page size below 1 is clamped to 1 and DefaultPageSize respectively. Pages
// past the first empty page skip as if they were that page, so Skip stays
// in range for any requested page while Page keeps the requested value.
func Calculate(page, total, pageSize int) Plan {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	pageCount := total / pageSize
	if total%pageSize > 0 {
		pageCount++
	}

	skipPage := page
	if firstEmpty := max(pageCount, 1) + 1; skipPage > firstEmpty {
		skipPage = firstEmpty
	}

	return Plan{
		Page:      page,
		PageSize:  pageSize,
		Skip:      (skipPage - 1) * pageSize,
		Total:     total,
		PageCount: pageCount,
	}
}

// Fallback returns the page to re-query when the planned page returned no
// rows even though it was past the first page. The result is the last valid
// page, never less than 1. An empty first page is not a fallback.
func (p Plan) Fallback(rowsReturned int) (int, bool) {
	if rowsReturned > 0 || p.Skip == 0 {
		return 0, false
	}
	if p.PageCount < 1 {
		return 1, true
	}
	return p.PageCount, true
}

// Retarget returns the plan for another page with the same total.
func (p Plan) Retarget(page int) Plan {
	return Calculate(page, p.Total, p.PageSize)
}
