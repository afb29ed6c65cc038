package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func productSpec(t *testing.T) *Spec {
	t.Helper()
	r := NewRegistry("production", config.QueryConfig{DefaultLimit: 20, MaxLimit: 100})
	spec, ok := r.Spec("products")
	require.True(t, ok)
	return spec
}

func orderSpec(t *testing.T) *Spec {
	t.Helper()
	r := NewRegistry("production", config.QueryConfig{DefaultLimit: 20, MaxLimit: 100})
	spec, ok := r.Spec("orders")
	require.True(t, ok)
	return spec
}

func parse(t *testing.T, spec *Spec, rawQuery string) *Builder {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return NewBuilder(spec, nil).Parse(values)
}

func hasCondition(b *Builder, expr string) bool {
	for _, c := range b.conditions {
		if c.expr == expr {
			return true
		}
	}
	return false
}

func conditionArgs(b *Builder, expr string) []interface{} {
	for _, c := range b.conditions {
		if c.expr == expr {
			return c.args
		}
	}
	return nil
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&limit=50", 3, 50},
		{"limit clamped to max", "limit=1000", 1, 100},
		{"zero limit uses default", "limit=0", 1, 20},
		{"negative page clamped", "page=-2", 1, 20},
		{"garbage ignored", "page=abc&limit=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := parse(t, productSpec(t), tt.query)
			assert.Equal(t, tt.wantPage, b.Page())
			assert.Equal(t, tt.wantLimit, b.Limit())
		})
	}
}

func TestParsePagination_EnvironmentRaisesMaxLimit(t *testing.T) {
	r := NewRegistry("development", config.QueryConfig{DefaultLimit: 20, MaxLimit: 100})
	spec, ok := r.Spec("products")
	require.True(t, ok)

	b := parse(t, spec, "limit=400")
	assert.Equal(t, 400, b.Limit())

	b = parse(t, spec, "limit=9000")
	assert.Equal(t, 500, b.Limit())
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"default", "", "created_at DESC"},
		{"sortBy with sortOrder", "sortBy=price&sortOrder=desc", "price DESC"},
		{"sortBy with order alias", "sortBy=price&order=desc", "price DESC"},
		{"sortBy defaults ascending", "sortBy=name", "name ASC"},
		{"colon syntax", "sort=price:desc,name:asc", "price DESC, name ASC"},
		{"dash syntax", "sort=-price,name", "price DESC, name ASC"},
		{"camelCase column", "sort=-createdAt", "created_at DESC"},
		{"unknown column falls back", "sort=password:asc", "created_at DESC"},
		{"mixed valid and invalid", "sort=bogus,-price", "price DESC"},
		{"sortBy wins over sort", "sortBy=name&sort=-price", "name ASC"},
		{"invalid direction treated as asc", "sortBy=price&sortOrder=sideways", "price ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := parse(t, productSpec(t), tt.query)
			assert.Equal(t, tt.want, b.OrderBy())
		})
	}
}

func TestParseSelect(t *testing.T) {
	t.Run("whitelisted columns with implicit id", func(t *testing.T) {
		b := parse(t, productSpec(t), "select=name,price")
		assert.Equal(t, []string{"id", "name", "price"}, b.selects)
	})

	t.Run("unknown columns dropped", func(t *testing.T) {
		b := parse(t, productSpec(t), "select=name,passwordHash")
		assert.Equal(t, []string{"id", "name"}, b.selects)
	})

	t.Run("no select means no projection", func(t *testing.T) {
		b := parse(t, productSpec(t), "")
		assert.Empty(t, b.selects)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		b := parse(t, productSpec(t), "select=name,name,id")
		assert.Equal(t, []string{"id", "name"}, b.selects)
	})
}

func TestParsePopulate(t *testing.T) {
	b := parse(t, productSpec(t), "populate=category,supplier")
	assert.Equal(t, []string{"Category"}, b.preloads)
}

func TestParseSearch(t *testing.T) {
	b := parse(t, productSpec(t), "search=keyboard")

	expr := "(name ILIKE ? OR sku ILIKE ? OR brand ILIKE ?)"
	require.True(t, hasCondition(b, expr))
	assert.Equal(t, []interface{}{"%keyboard%", "%keyboard%", "%keyboard%"}, conditionArgs(b, expr))
	assert.Equal(t, "keyboard", b.AppliedFilters()["search"])
}

func TestParseFilters_Text(t *testing.T) {
	b := parse(t, productSpec(t), "brand=logi")
	require.True(t, hasCondition(b, "brand ILIKE ?"))
	assert.Equal(t, []interface{}{"%logi%"}, conditionArgs(b, "brand ILIKE ?"))
}

func TestParseFilters_MultiValueEnum(t *testing.T) {
	b := parse(t, orderSpec(t), "status=pending,processing")
	require.True(t, hasCondition(b, "status IN ?"))
	assert.Equal(t, []interface{}{[]string{"pending", "processing"}}, conditionArgs(b, "status IN ?"))

	b = parse(t, orderSpec(t), "status=pending")
	assert.True(t, hasCondition(b, "status = ?"))
}

func TestParseFilters_Boolean(t *testing.T) {
	b := parse(t, productSpec(t), "isActive=true&featured=false")
	assert.Equal(t, []interface{}{true}, conditionArgs(b, "is_active = ?"))
	assert.Equal(t, []interface{}{false}, conditionArgs(b, "featured = ?"))

	// only the literals true and false bind
	b = parse(t, productSpec(t), "isActive=yes")
	assert.Empty(t, b.conditions)
}

func TestParseFilters_UUID(t *testing.T) {
	b := parse(t, productSpec(t), "categoryId=0b38d7f4-6a2e-4f3a-9a64-d5cbd2f5c001")
	assert.True(t, hasCondition(b, "category_id = ?"))

	b = parse(t, productSpec(t), "categoryId=not-a-uuid")
	assert.Empty(t, b.conditions)
	assert.Empty(t, b.AppliedFilters())
}

func TestParseFilters_Range(t *testing.T) {
	b := parse(t, productSpec(t), "minPrice=10&maxPrice=99.5")
	assert.Equal(t, []interface{}{10.0}, conditionArgs(b, "price >= ?"))
	assert.Equal(t, []interface{}{99.5}, conditionArgs(b, "price <= ?"))

	b = parse(t, productSpec(t), "minPrice=cheap")
	assert.Empty(t, b.conditions)

	// min/max only applies to declared range fields
	b = parse(t, productSpec(t), "minBrand=a")
	assert.Empty(t, b.conditions)
}

func TestParseFilters_DateBounds(t *testing.T) {
	b := parse(t, orderSpec(t), "createdAtFrom=2024-01-01&createdAtTo=2024-01-31")

	fromArgs := conditionArgs(b, "created_at >= ?")
	require.Len(t, fromArgs, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fromArgs[0])

	// a bare date upper bound covers the whole day
	toArgs := conditionArgs(b, "created_at < ?")
	require.Len(t, toArgs, 1)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), toArgs[0])
}

func TestParseFilters_InvalidDateDropped(t *testing.T) {
	b := parse(t, orderSpec(t), "createdAtFrom=yesterday")
	assert.Empty(t, b.conditions)
}

func TestParseFilters_BracketSyntax(t *testing.T) {
	t.Run("range operators", func(t *testing.T) {
		b := parse(t, productSpec(t), "filter[price][gte]=10&filter[price][lte]=50")
		assert.True(t, hasCondition(b, "price >= ?"))
		assert.True(t, hasCondition(b, "price <= ?"))
	})

	t.Run("bare field", func(t *testing.T) {
		b := parse(t, productSpec(t), "filter[brand]=logi")
		assert.True(t, hasCondition(b, "brand ILIKE ?"))
	})

	t.Run("in operator", func(t *testing.T) {
		b := parse(t, orderSpec(t), "filter[status][in]=pending,shipped")
		assert.True(t, hasCondition(b, "status IN ?"))
	})

	t.Run("unknown operator dropped", func(t *testing.T) {
		b := parse(t, productSpec(t), "filter[price][regex]=10")
		assert.Empty(t, b.conditions)
	})

	t.Run("strict operators dropped", func(t *testing.T) {
		b := parse(t, productSpec(t), "filter[price][gt]=10&filter[price][lt]=50")
		assert.Empty(t, b.conditions)
		assert.Empty(t, b.AppliedFilters())
	})
}

func TestParseFilters_UnknownParameterDropped(t *testing.T) {
	b := parse(t, productSpec(t), "warehouse=7&isActive=true")
	assert.Len(t, b.conditions, 1)
	assert.Equal(t, map[string]string{"isActive": "true"}, b.AppliedFilters())
}

func TestParse_Idempotent(t *testing.T) {
	values, err := url.ParseQuery("search=key&isActive=true&minPrice=5&sort=-price&page=2&limit=10")
	require.NoError(t, err)

	b := NewBuilder(productSpec(t), nil)
	b.Parse(values)
	first := len(b.conditions)
	firstSort := b.OrderBy()

	b.Parse(values)
	assert.Equal(t, first, len(b.conditions))
	assert.Equal(t, firstSort, b.OrderBy())
	assert.Equal(t, 2, b.Page())
	assert.Equal(t, 10, b.Limit())
}

func TestNewPagination(t *testing.T) {
	t.Run("middle page", func(t *testing.T) {
		p := NewPagination(2, 10, 35)
		assert.Equal(t, 4, p.TotalPages)
		assert.True(t, p.HasNextPage)
		assert.True(t, p.HasPrevPage)
		require.NotNil(t, p.NextPage)
		require.NotNil(t, p.PrevPage)
		assert.Equal(t, 3, *p.NextPage)
		assert.Equal(t, 1, *p.PrevPage)
	})

	t.Run("single page", func(t *testing.T) {
		p := NewPagination(1, 10, 7)
		assert.Equal(t, 1, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPrevPage)
		assert.Nil(t, p.NextPage)
		assert.Nil(t, p.PrevPage)
	})

	t.Run("empty result", func(t *testing.T) {
		p := NewPagination(1, 10, 0)
		assert.Equal(t, 0, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPrevPage)
	})

	t.Run("exact multiple", func(t *testing.T) {
		p := NewPagination(2, 10, 20)
		assert.Equal(t, 2, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.True(t, p.HasPrevPage)
	})
}

func TestParseAdminSort(t *testing.T) {
	allowed := map[string]bool{
		"created_at":   true,
		"total_amount": true,
		"status":       true,
		"id":           true,
	}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"defaults", "", "created_at DESC, id DESC"},
		{"allowed column descending", "sortBy=totalAmount&sortOrder=desc", "total_amount DESC, created_at DESC, id DESC"},
		{"allowed column ascending", "sortBy=status&sortOrder=asc", "status ASC, created_at DESC, id DESC"},
		{"unknown column falls back", "sortBy=secret_column&sortOrder=asc", "created_at ASC, id DESC"},
		{"id needs no id tiebreak", "sortBy=id&sortOrder=asc", "id ASC, created_at DESC"},
		{"direction case insensitive", "sortBy=status&sortOrder=ASC", "status ASC, created_at DESC, id DESC"},
		{"bad direction defaults to desc", "sortBy=status&sortOrder=upward", "status DESC, created_at DESC, id DESC"},
		{"order alias", "sortBy=status&order=asc", "status ASC, created_at DESC, id DESC"},
		{"sort colon token", "sort=totalAmount:asc", "total_amount ASC, created_at DESC, id DESC"},
		{"sort dash prefix", "sort=-totalAmount", "total_amount DESC, created_at DESC, id DESC"},
		{"sort first token wins", "sort=status:asc,totalAmount:desc", "status ASC, created_at DESC, id DESC"},
		{"sortBy beats sort", "sortBy=status&sort=totalAmount:asc", "status DESC, created_at DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseAdminSort(values, allowed))
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "created_at", toSnake("createdAt"))
	assert.Equal(t, "price", toSnake("price"))
	assert.Equal(t, "payment_status", toSnake("paymentStatus"))
}
