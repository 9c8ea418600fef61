package repository

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageBounds normalises paging input and returns page, size and offset.
func pageBounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, (page - 1) * size
}

// orderBy renders an ORDER BY clause restricted to allowed columns.
func orderBy(sortBy, sortOrder, fallback string, allowed map[string]bool) string {
	if !allowed[sortBy] {
		sortBy = fallback
	}
	order := strings.ToUpper(sortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", sortBy, order)
}

// placeholder returns the next positional parameter for args.
func placeholder(args []interface{}) string {
	return fmt.Sprintf("$%d", len(args)+1)
}
