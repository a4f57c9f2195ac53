package attribute

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func definition(t *testing.T, dataType catalog.DataType, rules *catalog.ValidationRules) *catalog.ItemAttribute {
	t.Helper()
	attr, err := catalog.NewItemAttribute(uuid.New(), nil, "attr", "", catalog.AttributeTypePricing, dataType)
	require.NoError(t, err)
	attr.ValidationRules = rules
	return attr
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name     string
		dataType catalog.DataType
		rules    *catalog.ValidationRules
		value    any
		reason   string
	}{
		{"string ok", catalog.DataTypeString, nil, "red", ""},
		{"string wrong type", catalog.DataTypeString, nil, json.Number("1"), "expected string, got number"},
		{"string too short", catalog.DataTypeString, &catalog.ValidationRules{MinLength: intPtr(3)}, "ab", "length 2 is below minimum 3"},
		{"string too long counts runes", catalog.DataTypeString, &catalog.ValidationRules{MaxLength: intPtr(3)}, "äöü", ""},
		{"string pattern", catalog.DataTypeString, &catalog.ValidationRules{Pattern: `^[A-Z]{2}$`}, "abc", `value "abc" does not match pattern "^[A-Z]{2}$"`},
		{"string allowed values", catalog.DataTypeString, &catalog.ValidationRules{AllowedValues: []string{"S", "M"}}, "XL", `value "XL" is not one of [S, M]`},

		{"number json", catalog.DataTypeNumber, &catalog.ValidationRules{Min: floatPtr(0), Max: floatPtr(60)}, json.Number("24"), ""},
		{"number above max", catalog.DataTypeNumber, &catalog.ValidationRules{Min: floatPtr(0), Max: floatPtr(60)}, json.Number("90"), "value 90 exceeds maximum 60"},
		{"number below min", catalog.DataTypeNumber, &catalog.ValidationRules{Min: floatPtr(0)}, -1, "value -1 is below minimum 0"},
		{"number integer rule", catalog.DataTypeNumber, &catalog.ValidationRules{Integer: true}, 2.5, "value 2.5 is not an integer"},
		{"number decimal", catalog.DataTypeNumber, nil, decimal.RequireFromString("9.99"), ""},
		{"number not finite", catalog.DataTypeNumber, nil, math.Inf(1), "value is not a finite number"},
		{"number json overflow", catalog.DataTypeNumber, nil, json.Number("1e400"), "value is not a finite number"},
		{"number json negative overflow", catalog.DataTypeNumber, nil, json.Number("-1e400"), "value is not a finite number"},
		{"number as string", catalog.DataTypeNumber, nil, "24", "expected number, got string"},

		{"boolean ok", catalog.DataTypeBoolean, nil, true, ""},
		{"boolean wrong type", catalog.DataTypeBoolean, nil, "true", "expected boolean, got string"},

		{"enum ok", catalog.DataTypeEnum, &catalog.ValidationRules{AllowedValues: []string{"ground", "air"}}, "air", ""},
		{"enum outside set", catalog.DataTypeEnum, &catalog.ValidationRules{AllowedValues: []string{"ground", "air"}}, "sea", `value "sea" is not one of [ground, air]`},
		{"enum without values", catalog.DataTypeEnum, nil, "air", "enum has no allowed values"},

		{"date day", catalog.DataTypeDate, nil, "2024-02-29", ""},
		{"date timestamp", catalog.DataTypeDate, nil, "2024-02-29T10:00:00Z", ""},
		{"date invalid", catalog.DataTypeDate, nil, "29/02/2024", `value "29/02/2024" is not an RFC 3339 timestamp or YYYY-MM-DD date`},
		{"date before min", catalog.DataTypeDate, &catalog.ValidationRules{MinDate: "2024-01-01"}, "2023-12-31", "date 2023-12-31 is before 2024-01-01"},
		{"date after max", catalog.DataTypeDate, &catalog.ValidationRules{MaxDate: "2024-01-01"}, "2024-01-02", "date 2024-01-02 is after 2024-01-01"},

		{"json any value", catalog.DataTypeJSON, nil, []any{1, 2}, ""},
		{"json null", catalog.DataTypeJSON, nil, nil, "expected a JSON value, got null"},
		{"json required keys", catalog.DataTypeJSON, &catalog.ValidationRules{RequiredKeys: []string{"w", "h"}}, map[string]any{"w": 1}, "missing keys [h]"},
		{"json required keys on array", catalog.DataTypeJSON, &catalog.ValidationRules{RequiredKeys: []string{"w"}}, []any{}, "expected JSON object, got array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reason, CheckValue(definition(t, tt.dataType, tt.rules), tt.value))
		})
	}
}

func TestCheckRules(t *testing.T) {
	tests := []struct {
		name     string
		dataType catalog.DataType
		rules    *catalog.ValidationRules
		wantErr  bool
	}{
		{"no rules", catalog.DataTypeString, nil, false},
		{"enum needs values", catalog.DataTypeEnum, nil, true},
		{"enum with values", catalog.DataTypeEnum, &catalog.ValidationRules{AllowedValues: []string{"a"}}, false},
		{"min above max", catalog.DataTypeNumber, &catalog.ValidationRules{Min: floatPtr(5), Max: floatPtr(1)}, true},
		{"negative length", catalog.DataTypeString, &catalog.ValidationRules{MinLength: intPtr(-1)}, true},
		{"length bounds swapped", catalog.DataTypeString, &catalog.ValidationRules{MinLength: intPtr(5), MaxLength: intPtr(2)}, true},
		{"bad pattern", catalog.DataTypeString, &catalog.ValidationRules{Pattern: "(["}, true},
		{"bad date", catalog.DataTypeDate, &catalog.ValidationRules{MinDate: "yesterday"}, true},
		{"dates swapped", catalog.DataTypeDate, &catalog.ValidationRules{MinDate: "2024-02-01", MaxDate: "2024-01-01"}, true},
		{"dates ordered", catalog.DataTypeDate, &catalog.ValidationRules{MinDate: "2024-01-01", MaxDate: "2024-02-01"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := CheckRules(tt.dataType, tt.rules)
			if tt.wantErr {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}
