package attribute

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/catalog"
)

// dateLayouts are the accepted encodings of date values, tried in order
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// checker validates one value against the rules of a data type and returns a
// human-readable reason on mismatch, or "" when the value conforms.
type checker func(value any, rules *catalog.ValidationRules) string

// checkers dispatches on the definition's data type
var checkers = map[catalog.DataType]checker{
	catalog.DataTypeString:  checkString,
	catalog.DataTypeNumber:  checkNumber,
	catalog.DataTypeBoolean: checkBoolean,
	catalog.DataTypeEnum:    checkEnum,
	catalog.DataTypeDate:    checkDate,
	catalog.DataTypeJSON:    checkJSON,
}

// CheckValue validates value against a definition's data type and rules
func CheckValue(def *catalog.ItemAttribute, value any) string {
	check, ok := checkers[def.DataType]
	if !ok {
		return fmt.Sprintf("unsupported data type %q", def.DataType)
	}
	return check(value, def.ValidationRules)
}

func checkString(value any, rules *catalog.ValidationRules) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("expected string, got %s", describe(value))
	}
	if rules == nil {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if rules.MinLength != nil && n < *rules.MinLength {
		return fmt.Sprintf("length %d is below minimum %d", n, *rules.MinLength)
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		return fmt.Sprintf("length %d exceeds maximum %d", n, *rules.MaxLength)
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			return fmt.Sprintf("pattern %q does not compile", rules.Pattern)
		}
		if !re.MatchString(s) {
			return fmt.Sprintf("value %q does not match pattern %q", s, rules.Pattern)
		}
	}
	if len(rules.AllowedValues) > 0 && !contains(rules.AllowedValues, s) {
		return fmt.Sprintf("value %q is not one of [%s]", s, strings.Join(rules.AllowedValues, ", "))
	}
	return ""
}

func checkNumber(value any, rules *catalog.ValidationRules) string {
	f, ok := toFloat(value)
	if !ok {
		return fmt.Sprintf("expected number, got %s", describe(value))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "value is not a finite number"
	}
	if rules == nil {
		return ""
	}
	if rules.Integer && f != math.Trunc(f) {
		return fmt.Sprintf("value %v is not an integer", f)
	}
	if rules.Min != nil && f < *rules.Min {
		return fmt.Sprintf("value %v is below minimum %v", f, *rules.Min)
	}
	if rules.Max != nil && f > *rules.Max {
		return fmt.Sprintf("value %v exceeds maximum %v", f, *rules.Max)
	}
	return ""
}

func checkBoolean(value any, _ *catalog.ValidationRules) string {
	if _, ok := value.(bool); !ok {
		return fmt.Sprintf("expected boolean, got %s", describe(value))
	}
	return ""
}

func checkEnum(value any, rules *catalog.ValidationRules) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("expected enum string, got %s", describe(value))
	}
	if rules == nil || len(rules.AllowedValues) == 0 {
		return "enum has no allowed values"
	}
	if !contains(rules.AllowedValues, s) {
		return fmt.Sprintf("value %q is not one of [%s]", s, strings.Join(rules.AllowedValues, ", "))
	}
	return ""
}

func checkDate(value any, rules *catalog.ValidationRules) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("expected date string, got %s", describe(value))
	}
	t, ok := parseDate(s)
	if !ok {
		return fmt.Sprintf("value %q is not an RFC 3339 timestamp or YYYY-MM-DD date", s)
	}
	if rules == nil {
		return ""
	}
	if rules.MinDate != "" {
		if lo, ok := parseDate(rules.MinDate); ok && t.Before(lo) {
			return fmt.Sprintf("date %s is before %s", s, rules.MinDate)
		}
	}
	if rules.MaxDate != "" {
		if hi, ok := parseDate(rules.MaxDate); ok && t.After(hi) {
			return fmt.Sprintf("date %s is after %s", s, rules.MaxDate)
		}
	}
	return ""
}

func checkJSON(value any, rules *catalog.ValidationRules) string {
	if value == nil {
		return "expected a JSON value, got null"
	}
	if rules == nil || len(rules.RequiredKeys) == 0 {
		return ""
	}
	obj, ok := toObject(value)
	if !ok {
		return fmt.Sprintf("expected JSON object, got %s", describe(value))
	}
	var missing []string
	for _, key := range rules.RequiredKeys {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("missing keys [%s]", strings.Join(missing, ", "))
	}
	return ""
}

// CheckRules verifies that a rule set is well formed for the data type
func CheckRules(dataType catalog.DataType, rules *catalog.ValidationRules) string {
	if dataType == catalog.DataTypeEnum && (rules == nil || len(rules.AllowedValues) == 0) {
		return "enum attributes require allowedValues"
	}
	if rules == nil {
		return ""
	}
	if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
		return fmt.Sprintf("min %v exceeds max %v", *rules.Min, *rules.Max)
	}
	if rules.MinLength != nil && *rules.MinLength < 0 {
		return "minLength cannot be negative"
	}
	if rules.MaxLength != nil && *rules.MaxLength < 0 {
		return "maxLength cannot be negative"
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		return fmt.Sprintf("minLength %d exceeds maxLength %d", *rules.MinLength, *rules.MaxLength)
	}
	if rules.Pattern != "" {
		if _, err := regexp.Compile(rules.Pattern); err != nil {
			return fmt.Sprintf("pattern does not compile: %v", err)
		}
	}
	var minDate, maxDate time.Time
	if rules.MinDate != "" {
		t, ok := parseDate(rules.MinDate)
		if !ok {
			return fmt.Sprintf("minDate %q is not a date", rules.MinDate)
		}
		minDate = t
	}
	if rules.MaxDate != "" {
		t, ok := parseDate(rules.MaxDate)
		if !ok {
			return fmt.Sprintf("maxDate %q is not a date", rules.MaxDate)
		}
		maxDate = t
	}
	if !minDate.IsZero() && !maxDate.IsZero() && minDate.After(maxDate) {
		return "minDate is after maxDate"
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if errors.Is(err, strconv.ErrRange) {
			// out-of-range literals parse to ±Inf and fail the finite check
			return f, true
		}
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, true
	}
	return 0, false
}

func toObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case catalog.Payload:
		return v, true
	}
	return nil, false
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any, catalog.Payload:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
