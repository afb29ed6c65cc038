package query

// Pagination describes the page window of a list result.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
	NextPage    *int  `json:"next_page,omitempty"`
	PrevPage    *int  `json:"prev_page,omitempty"`
}

// NewPagination derives the full pagination block from page, limit and the
// total row count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	p := Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}

// Result is a fully-executed list query: the page of items plus the
// pagination block and an echo of the filters and sort that produced it.
type Result[T any] struct {
	Items      []T               `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Filter     map[string]string `json:"filter,omitempty"`
	Sort       string            `json:"sort,omitempty"`
}
