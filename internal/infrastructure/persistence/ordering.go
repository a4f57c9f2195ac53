package persistence

import (
	"strings"
)

// ItemSortFields are the item columns ListItems may order by
var ItemSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"sku":           true,
	"name":          true,
	"category_type": true,
	"base_price":    true,
	"status":        true,
	"priority":      true,
}

// OrderBy renders an ORDER BY term from caller input. A column outside allowed
// falls back to fallback; any direction other than asc sorts descending. The id
// tiebreaker keeps pages stable when the column has duplicates.
func OrderBy(column, direction string, allowed map[string]bool, fallback string) string {
	column = strings.TrimSpace(column)
	if !allowed[column] {
		column = fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		dir = "ASC"
	}
	return column + " " + dir + ", id ASC"
}
