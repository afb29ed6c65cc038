package query

import (
	"net/url"
	"strings"
)

// ParseAdminSort resolves the admin listing sort parameters into a
// deterministic ORDER BY clause. The primary column comes from sortBy, or
// from the first sort= token when sortBy is absent. Unknown or missing
// columns fall back to created_at, and created_at plus id tiebreaks keep the
// order stable across pages even when many rows share the primary sort value.
func ParseAdminSort(values url.Values, allowed map[string]bool) string {
	sortBy := strings.TrimSpace(values.Get("sortBy"))
	sortOrder := values.Get("sortOrder")
	if sortOrder == "" {
		sortOrder = values.Get("order")
	}

	if sortBy == "" {
		if tokens := splitList(values.Get("sort")); len(tokens) > 0 {
			sortBy = tokens[0]
			if i := strings.IndexByte(sortBy, ':'); i >= 0 {
				sortBy, sortOrder = sortBy[:i], sortBy[i+1:]
			} else if strings.HasPrefix(sortBy, "-") {
				sortBy, sortOrder = sortBy[1:], "desc"
			}
		}
	}

	col := toSnake(sortBy)
	if col == "" || !allowed[col] {
		col = "created_at"
	}

	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		dir = "ASC"
	}

	clause := col + " " + dir
	if col != "created_at" {
		clause += ", created_at DESC"
	}
	if col != "id" {
		clause += ", id DESC"
	}
	return clause
}
