package query

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultTimeout bounds the combined data+count execution of a list query.
const DefaultTimeout = 10 * time.Second

// reserved names are consumed by pagination, sorting, projection and search
// and never reach the filter parser.
var reserved = map[string]bool{
	"page":      true,
	"limit":     true,
	"sort":      true,
	"sortBy":    true,
	"sortOrder": true,
	"order":     true,
	"select":    true,
	"populate":  true,
	"search":    true,
}

var bracketFilter = regexp.MustCompile(`^filter\[([A-Za-z0-9_]+)\](?:\[([A-Za-z]+)\])?$`)

type condition struct {
	expr string
	args []interface{}
}

// Builder turns an HTTP query string into a bounded database query. Parsing
// never fails: parameters that are unknown, unparseable or outside the spec
// whitelist are dropped, and the rest still execute.
type Builder struct {
	spec    *Spec
	log     *zap.Logger
	timeout time.Duration

	conditions []condition
	orderBy    string
	selects    []string
	preloads   []string
	page       int
	limit      int
	applied    map[string]string
}

// NewBuilder creates a builder bound to an entity spec.
func NewBuilder(spec *Spec, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		spec:    spec,
		log:     log,
		timeout: DefaultTimeout,
		applied: make(map[string]string),
	}
}

// WithTimeout overrides the execution deadline.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.timeout = d
	}
	return b
}

// Parse reads the query string. Calling Parse twice with the same values
// produces the same query.
func (b *Builder) Parse(values url.Values) *Builder {
	b.conditions = nil
	b.selects = nil
	b.preloads = nil
	b.applied = make(map[string]string)

	normalized := b.normalizeBrackets(values)
	b.parsePagination(normalized)
	b.parseSort(normalized)
	b.parseSelect(normalized)
	b.parsePopulate(normalized)
	b.parseSearch(normalized)
	b.parseFilters(normalized)
	return b
}

// normalizeBrackets rewrites filter[field][op]=v into the flat parameter
// form the filter parser understands.
func (b *Builder) normalizeBrackets(values url.Values) url.Values {
	out := url.Values{}
	for key, vals := range values {
		m := bracketFilter.FindStringSubmatch(key)
		if m == nil {
			out[key] = append(out[key], vals...)
			continue
		}
		field, op := m[1], m[2]
		switch op {
		case "", "eq", "in":
			out[field] = append(out[field], vals...)
		case "gte":
			out["min"+upperFirst(field)] = append(out["min"+upperFirst(field)], vals...)
		case "lte":
			out["max"+upperFirst(field)] = append(out["max"+upperFirst(field)], vals...)
		default:
			b.drop(key, "unknown filter operator")
		}
	}
	return out
}

func (b *Builder) parsePagination(values url.Values) {
	page, _ := strconv.Atoi(values.Get("page"))
	if page < 1 {
		page = 1
	}
	b.page = page

	limit, _ := strconv.Atoi(values.Get("limit"))
	if limit <= 0 {
		limit = b.spec.DefaultLimit
	}
	if limit > b.spec.MaxLimit {
		limit = b.spec.MaxLimit
	}
	b.limit = limit
}

// parseSort accepts three syntaxes, first match wins:
//
//	sortBy=price&sortOrder=desc   (order= is an alias for sortOrder=)
//	sort=price:desc,name:asc
//	sort=-price,name
func (b *Builder) parseSort(values url.Values) {
	var clauses []string

	if sortBy := strings.TrimSpace(values.Get("sortBy")); sortBy != "" {
		dir := strings.ToLower(values.Get("sortOrder"))
		if dir == "" {
			dir = strings.ToLower(values.Get("order"))
		}
		if dir != "desc" {
			dir = "asc"
		}
		if col := toSnake(sortBy); b.spec.Sortable[col] {
			clauses = append(clauses, col+" "+strings.ToUpper(dir))
		} else {
			b.drop("sortBy", "column not sortable")
		}
	} else if sortExpr := values.Get("sort"); sortExpr != "" {
		for _, token := range splitList(sortExpr) {
			col, dir := token, "asc"
			if i := strings.IndexByte(token, ':'); i >= 0 {
				col, dir = token[:i], strings.ToLower(token[i+1:])
			} else if strings.HasPrefix(token, "-") {
				col, dir = token[1:], "desc"
			}
			if dir != "desc" {
				dir = "asc"
			}
			snake := toSnake(col)
			if b.spec.Sortable[snake] {
				clauses = append(clauses, snake+" "+strings.ToUpper(dir))
			} else {
				b.drop("sort", "column "+col+" not sortable")
			}
		}
	}

	if len(clauses) == 0 {
		b.orderBy = b.spec.DefaultSort
		return
	}
	b.orderBy = strings.Join(clauses, ", ")
}

func (b *Builder) parseSelect(values url.Values) {
	raw := values.Get("select")
	if raw == "" {
		return
	}
	seen := map[string]bool{}
	for _, field := range splitList(raw) {
		col := toSnake(field)
		if !b.spec.Selectable[col] {
			b.drop("select", "column "+field+" not selectable")
			continue
		}
		if !seen[col] {
			seen[col] = true
			b.selects = append(b.selects, col)
		}
	}
	// a partial projection always carries the primary key
	if len(b.selects) > 0 && !seen["id"] {
		b.selects = append([]string{"id"}, b.selects...)
	}
}

func (b *Builder) parsePopulate(values url.Values) {
	raw := values.Get("populate")
	if raw == "" {
		return
	}
	for _, name := range splitList(raw) {
		assoc, ok := b.spec.Populatable[name]
		if !ok {
			b.drop("populate", "association "+name+" not populatable")
			continue
		}
		b.preloads = append(b.preloads, assoc)
	}
}

func (b *Builder) parseSearch(values url.Values) {
	term := strings.TrimSpace(values.Get("search"))
	if term == "" || len(b.spec.Searchable) == 0 {
		return
	}
	exprs := make([]string, len(b.spec.Searchable))
	args := make([]interface{}, len(b.spec.Searchable))
	for i, col := range b.spec.Searchable {
		exprs[i] = col + " ILIKE ?"
		args[i] = "%" + term + "%"
	}
	b.conditions = append(b.conditions, condition{
		expr: "(" + strings.Join(exprs, " OR ") + ")",
		args: args,
	})
	b.applied["search"] = term
}

func (b *Builder) parseFilters(values url.Values) {
	keys := make([]string, 0, len(values))
	for key := range values {
		if !reserved[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			continue
		}
		if b.tryRange(key, raw) {
			continue
		}
		if b.tryDateBound(key, raw) {
			continue
		}
		b.tryFilter(key, raw)
	}
}

// tryRange handles the min/max prefix form (minPrice=10, maxCreatedAt=...).
func (b *Builder) tryRange(key, raw string) bool {
	var op, base string
	switch {
	case strings.HasPrefix(key, "min") && len(key) > 3:
		op, base = ">=", lowerFirst(key[3:])
	case strings.HasPrefix(key, "max") && len(key) > 3:
		op, base = "<=", lowerFirst(key[3:])
	default:
		return false
	}

	ft, ok := b.spec.Ranges[base]
	if !ok {
		return false
	}
	b.addBound(key, base, op, ft, raw)
	return true
}

// tryDateBound handles the suffix form for date ranges: createdAtFrom and
// createdAtStart are lower bounds, createdAtTo and createdAtEnd upper bounds.
func (b *Builder) tryDateBound(key, raw string) bool {
	for _, s := range []struct {
		suffix string
		op     string
	}{
		{"From", ">="},
		{"Start", ">="},
		{"To", "<="},
		{"End", "<="},
	} {
		if !strings.HasSuffix(key, s.suffix) || len(key) == len(s.suffix) {
			continue
		}
		base := key[:len(key)-len(s.suffix)]
		if ft, ok := b.spec.Ranges[base]; ok && ft == FieldDate {
			b.addBound(key, base, s.op, FieldDate, raw)
			return true
		}
	}
	return false
}

func (b *Builder) addBound(key, base, op string, ft FieldType, raw string) {
	col := toSnake(base)
	switch ft {
	case FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			b.drop(key, "invalid number")
			return
		}
		b.where(col+" "+op+" ?", n)
	case FieldDate:
		t, dateOnly, ok := parseDate(raw)
		if !ok {
			b.drop(key, "invalid date")
			return
		}
		// a bare date as upper bound includes the whole day
		if op == "<=" && dateOnly {
			b.where(col+" < ?", t.AddDate(0, 0, 1))
		} else {
			b.where(col+" "+op+" ?", t)
		}
	default:
		b.drop(key, "field does not support ranges")
		return
	}
	b.applied[key] = raw
}

func (b *Builder) tryFilter(key, raw string) {
	ft, ok := b.spec.Filterable[key]
	if !ok {
		b.drop(key, "unknown parameter")
		return
	}
	col := toSnake(key)

	switch ft {
	case FieldText:
		b.where(col+" ILIKE ?", "%"+raw+"%")
	case FieldEnum:
		if b.spec.Multi[key] && strings.Contains(raw, ",") {
			b.where(col+" IN ?", splitList(raw))
		} else {
			b.where(col+" = ?", raw)
		}
	case FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			b.drop(key, "invalid number")
			return
		}
		b.where(col+" = ?", n)
	case FieldBoolean:
		if raw != "true" && raw != "false" {
			b.drop(key, "not a boolean literal")
			return
		}
		b.where(col+" = ?", raw == "true")
	case FieldUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			b.drop(key, "invalid uuid")
			return
		}
		b.where(col+" = ?", id)
	case FieldDate:
		t, _, ok := parseDate(raw)
		if !ok {
			b.drop(key, "invalid date")
			return
		}
		b.where(col+" = ?", t)
	}
	b.applied[key] = raw
}

// Where adds a fixed condition that does not come from the query string,
// e.g. scoping a listing to the authenticated user. Call after Parse.
func (b *Builder) Where(expr string, args ...interface{}) *Builder {
	b.where(expr, args...)
	return b
}

// OverrideSort replaces the parsed sort with a server-resolved clause.
func (b *Builder) OverrideSort(clause string) *Builder {
	if clause != "" {
		b.orderBy = clause
	}
	return b
}

func (b *Builder) where(expr string, args ...interface{}) {
	b.conditions = append(b.conditions, condition{expr: expr, args: args})
}

func (b *Builder) drop(param, reason string) {
	b.log.Debug("dropped query parameter",
		zap.String("param", param),
		zap.String("reason", reason),
	)
}

// Page returns the resolved page number.
func (b *Builder) Page() int { return b.page }

// Limit returns the resolved page size.
func (b *Builder) Limit() int { return b.limit }

// OrderBy returns the resolved ORDER BY clause.
func (b *Builder) OrderBy() string { return b.orderBy }

// AppliedFilters returns the parameters that survived parsing, for echoing
// back in list responses.
func (b *Builder) AppliedFilters() map[string]string { return b.applied }

// ApplyConditions adds the WHERE clauses to db. Shared by the data query
// and the count query.
func (b *Builder) ApplyConditions(db *gorm.DB) *gorm.DB {
	for _, c := range b.conditions {
		db = db.Where(c.expr, c.args...)
	}
	return db
}

// ApplyListing adds ordering, projection, preloads and the page window.
// Only the data query uses this.
func (b *Builder) ApplyListing(db *gorm.DB) *gorm.DB {
	db = db.Order(b.orderBy)
	if len(b.selects) > 0 {
		db = db.Select(b.selects)
	}
	for _, assoc := range b.preloads {
		db = db.Preload(assoc)
	}
	return db.Offset((b.page - 1) * b.limit).Limit(b.limit)
}

// Execute runs the data and count queries concurrently and assembles the
// paginated result. Both queries share one deadline; exceeding it returns
// shared.ErrQueryTimeout.
func Execute[T any](ctx context.Context, db *gorm.DB, b *Builder) (*Result[T], error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		items = make([]T, 0, b.limit)
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := b.ApplyConditions(db.WithContext(gctx).Model(new(T)))
		return b.ApplyListing(q).Find(&items).Error
	})
	g.Go(func() error {
		q := b.ApplyConditions(db.WithContext(gctx).Model(new(T)))
		return q.Count(&total).Error
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, shared.ErrQueryTimeout
		}
		return nil, err
	}

	return &Result[T]{
		Items:      items,
		Pagination: NewPagination(b.page, b.limit, total),
		Filter:     b.applied,
		Sort:       b.orderBy,
	}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate accepts RFC3339 timestamps and bare YYYY-MM-DD dates.
func parseDate(raw string) (t time.Time, dateOnly bool, ok bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// toSnake converts camelCase parameter names to snake_case column names.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
