package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name      string
		column    string
		direction string
		want      string
	}{
		{"defaults", "", "", "created_at DESC, id ASC"},
		{"allowed column ascending", "sku", "asc", "sku ASC, id ASC"},
		{"direction is case insensitive", "name", "  ASC ", "name ASC, id ASC"},
		{"column is trimmed", " base_price ", "desc", "base_price DESC, id ASC"},
		{"column is case sensitive", "SKU", "asc", "created_at ASC, id ASC"},
		{"unknown column falls back", "organization_id", "asc", "created_at ASC, id ASC"},
		{"unknown direction sorts descending", "name", "sideways", "name DESC, id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderBy(tt.column, tt.direction, ItemSortFields, "created_at"))
		})
	}
}

func TestOrderBy_RejectsInjection(t *testing.T) {
	payloads := []string{
		"sku; DROP TABLE items;--",
		"sku' OR '1'='1",
		"sku, (SELECT email FROM users)",
		"CASE WHEN 1=1 THEN sku ELSE name END",
		"sku\n; DROP TABLE items",
	}
	for _, p := range payloads {
		assert.Equal(t, "created_at DESC, id ASC", OrderBy(p, p, ItemSortFields, "created_at"), p)
	}
}
