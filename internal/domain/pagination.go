package domain

import "strconv"

// DefaultPageLimit is the page size used by the favorites view.
const DefaultPageLimit = 5

// PageQuery carries paging params. Page is 1-based.
type PageQuery struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search"`
}

// Normalize clamps page and limit to positive values.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	return q
}

// TotalPages returns ceil(total/limit); zero when there is nothing to show.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PageString formats a page number for query strings.
func PageString(p int) string {
	return strconv.Itoa(p)
}
