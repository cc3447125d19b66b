package models

import "math"

// IPOFilter is the store-level predicate shared by the page query and the count query
type IPOFilter struct {
	Tab    Tab
	Today  string
	Search string
}

// Matches evaluates the filter in memory. Stores must implement the same predicate.
// Search folds case with Unicode rules like Postgres LOWER; SQLite's LOWER only
// folds ASCII, so non-ASCII terms can match here and miss on SQLite.
func (f IPOFilter) Matches(ipo *IPO) bool {
	if ipo.Tab(f.Today) != f.Tab {
		return false
	}
	if f.Search == "" {
		return true
	}
	return ContainsFold(ipo.AnalysisTitle, f.Search) ||
		ContainsFold(ipo.Name, f.Search) ||
		ContainsFold(ipo.Summary, f.Search)
}

type QueryParams struct {
	Tab    Tab
	Page   int
	Limit  int
	Search string
}

// Offset returns the number of records skipped before the requested page.
// ok is false when the offset does not fit in an int; no record lives on such a page.
func (p QueryParams) Offset() (offset int, ok bool) {
	if p.Page < 1 || p.Limit < 1 {
		return 0, true
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return 0, false
	}
	return (p.Page - 1) * p.Limit, true
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalDocs  int64 `json:"totalDocs"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes totalPages = ceil(totalDocs / limit)
func NewPagination(page, limit int, totalDocs int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalDocs + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalDocs:  totalDocs,
		TotalPages: totalPages,
	}
}

type IPOPage struct {
	Data       []IPO      `json:"data"`
	Pagination Pagination `json:"pagination"`
}
