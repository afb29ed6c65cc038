package dto

import "github.com/storefront/backend/internal/infrastructure/query"

// Response is the envelope every endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorBody carries a machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta is the pagination block attached to list responses.
type Meta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// MetaFrom converts an executed query's pagination into the response meta.
func MetaFrom(p query.Pagination) *Meta {
	return &Meta{
		Total:       p.Total,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  p.TotalPages,
		HasNextPage: p.HasNextPage,
		HasPrevPage: p.HasPrevPage,
	}
}
