package services

import (
	"github.com/estatehub/backend/internal/domain/repositories"
)

// Page size bounds. The ceiling keeps a single request from demanding an
// unbounded result window.
const (
	DefaultPageSize = 12
	MinPageSize     = 1
	MaxPageSize     = 50
)

// Pagination is the page metadata returned alongside a result window.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageCount   int `json:"page_count"`
	TotalCount  int `json:"total_count"`
	PageSize    int `json:"page_size"`
}

// PagePlan is the result of planning a page: the window to fetch and the
// metadata to report.
type PagePlan struct {
	Window     repositories.PageWindow
	Pagination Pagination
}

// PlanPage computes the result window and page metadata for a request. It is
// a pure function: page below 1 clamps to 1, pageSize clamps into
// [MinPageSize, MaxPageSize], and a page past the end yields an empty window
// rather than an error. PageCount is ceil(totalCount/pageSize), 0 when the
// result set is empty.
func PlanPage(page, pageSize, totalCount int) PagePlan {
	if page < 1 {
		page = 1
	}
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if totalCount < 0 {
		totalCount = 0
	}

	pageCount := 0
	if totalCount > 0 {
		pageCount = (totalCount + pageSize - 1) / pageSize
	}

	return PagePlan{
		Window: repositories.PageWindow{
			Offset: (page - 1) * pageSize,
			Limit:  pageSize,
		},
		Pagination: Pagination{
			CurrentPage: page,
			PageCount:   pageCount,
			TotalCount:  totalCount,
			PageSize:    pageSize,
		},
	}
}
