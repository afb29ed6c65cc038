package query

import (
	"github.com/storefront/backend/internal/infrastructure/config"
)

// FieldType classifies how a filter parameter binds to SQL.
type FieldType int

const (
	// FieldText matches partially and case-insensitively (ILIKE %v%).
	FieldText FieldType = iota
	// FieldEnum matches exactly. Comma-separated values become IN (...) when
	// the parameter is declared multi-valued.
	FieldEnum
	// FieldNumber matches exactly after numeric validation.
	FieldNumber
	// FieldBoolean accepts only the literals "true" and "false".
	FieldBoolean
	// FieldUUID matches exactly after UUID validation.
	FieldUUID
	// FieldDate accepts RFC3339 timestamps or YYYY-MM-DD dates.
	FieldDate
)

// Spec declares, per entity, which query-string parameters are honored and
// how they bind to columns. Every parameter not declared here is dropped
// without an error so a stray or malicious parameter can never widen a query.
type Spec struct {
	// Searchable lists columns OR-matched by ?search=.
	Searchable []string
	// Filterable maps a parameter name to its interpretation.
	Filterable map[string]FieldType
	// Multi marks parameters whose comma-separated values become IN (...).
	Multi map[string]bool
	// Ranges maps a base parameter name to its value type. A range field
	// "price" accepts minPrice / maxPrice; date ranges additionally accept
	// the From/Start and To/End suffixes (createdAtFrom, createdAtTo).
	Ranges map[string]FieldType
	// Sortable whitelists columns usable in sort expressions.
	Sortable map[string]bool
	// Selectable whitelists columns usable in ?select= projections.
	Selectable map[string]bool
	// Populatable maps a ?populate= value to a preloadable association.
	Populatable map[string]string
	// DefaultSort is the ORDER BY applied when no valid sort is requested.
	DefaultSort string
	// DefaultLimit and MaxLimit bound page sizes.
	DefaultLimit int
	MaxLimit     int
}

// Registry holds the per-entity query specs. Limits depend on the runtime
// environment so internal tooling can page wider than the public API.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry builds the spec registry for all list endpoints.
func NewRegistry(env string, defaults config.QueryConfig) *Registry {
	maxLimit := defaults.MaxLimit
	if env != "production" {
		// Staging and local environments allow deep pages for data checks.
		maxLimit = defaults.MaxLimit * 5
	}

	specs := map[string]*Spec{
		"products": {
			Searchable: []string{"name", "sku", "brand"},
			Filterable: map[string]FieldType{
				"brand":      FieldText,
				"sku":        FieldEnum,
				"slug":       FieldEnum,
				"isActive":   FieldBoolean,
				"featured":   FieldBoolean,
				"categoryId": FieldUUID,
			},
			Multi: map[string]bool{
				"sku": true,
			},
			Ranges: map[string]FieldType{
				"price":     FieldNumber,
				"stockQty":  FieldNumber,
				"createdAt": FieldDate,
			},
			Sortable: map[string]bool{
				"name":       true,
				"price":      true,
				"stock_qty":  true,
				"featured":   true,
				"created_at": true,
				"updated_at": true,
			},
			Selectable: map[string]bool{
				"id":            true,
				"sku":           true,
				"name":          true,
				"slug":          true,
				"brand":         true,
				"category_id":   true,
				"price":         true,
				"compare_price": true,
				"stock_qty":     true,
				"is_active":     true,
				"featured":      true,
				"created_at":    true,
			},
			Populatable: map[string]string{
				"category": "Category",
			},
			DefaultSort:  "created_at DESC",
			DefaultLimit: defaults.DefaultLimit,
			MaxLimit:     maxLimit,
		},
		"categories": {
			Searchable: []string{"name"},
			Filterable: map[string]FieldType{
				"slug":     FieldEnum,
				"isActive": FieldBoolean,
			},
			Ranges: map[string]FieldType{
				"createdAt": FieldDate,
			},
			Sortable: map[string]bool{
				"name":       true,
				"created_at": true,
			},
			Selectable: map[string]bool{
				"id":         true,
				"name":       true,
				"slug":       true,
				"is_active":  true,
				"created_at": true,
			},
			DefaultSort:  "name ASC",
			DefaultLimit: defaults.DefaultLimit,
			MaxLimit:     maxLimit,
		},
		"orders": {
			Searchable: []string{"order_number", "customer_name", "phone"},
			Filterable: map[string]FieldType{
				"status":        FieldEnum,
				"paymentStatus": FieldEnum,
				"paymentMethod": FieldEnum,
				"userId":        FieldUUID,
				"orderNumber":   FieldEnum,
			},
			Multi: map[string]bool{
				"status":        true,
				"paymentStatus": true,
			},
			Ranges: map[string]FieldType{
				"payableAmount": FieldNumber,
				"totalAmount":   FieldNumber,
				"createdAt":     FieldDate,
			},
			Sortable: map[string]bool{
				"order_number":   true,
				"status":         true,
				"payment_status": true,
				"total_amount":   true,
				"payable_amount": true,
				"created_at":     true,
				"updated_at":     true,
			},
			Selectable: map[string]bool{
				"id":             true,
				"order_number":   true,
				"user_id":        true,
				"customer_name":  true,
				"phone":          true,
				"status":         true,
				"payment_status": true,
				"payment_method": true,
				"total_amount":   true,
				"payable_amount": true,
				"created_at":     true,
			},
			Populatable: map[string]string{
				"items": "Items",
			},
			DefaultSort:  "created_at DESC",
			DefaultLimit: defaults.DefaultLimit,
			MaxLimit:     maxLimit,
		},
		"users": {
			Searchable: []string{"email", "username", "full_name"},
			Filterable: map[string]FieldType{
				"role":     FieldEnum,
				"isActive": FieldBoolean,
				"email":    FieldEnum,
			},
			Multi: map[string]bool{
				"role": true,
			},
			Ranges: map[string]FieldType{
				"createdAt": FieldDate,
			},
			Sortable: map[string]bool{
				"email":         true,
				"username":      true,
				"created_at":    true,
				"last_login_at": true,
			},
			Selectable: map[string]bool{
				"id":            true,
				"email":         true,
				"username":      true,
				"full_name":     true,
				"role":          true,
				"is_active":     true,
				"last_login_at": true,
				"created_at":    true,
			},
			DefaultSort:  "created_at DESC",
			DefaultLimit: defaults.DefaultLimit,
			MaxLimit:     maxLimit,
		},
	}

	return &Registry{specs: specs}
}

// Spec returns the query spec registered for a model.
func (r *Registry) Spec(model string) (*Spec, bool) {
	s, ok := r.specs[model]
	return s, ok
}
