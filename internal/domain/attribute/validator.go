package attribute

import (
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/storefront/catalog/internal/domain/catalog"
)

// PayloadValidator checks an item's JSON fields against a resolved schema and the
// built-in item rules. It holds no state between calls: the same item and schema
// always produce the same result.
type PayloadValidator struct {
	validate *validator.Validate
}

// NewPayloadValidator creates a new PayloadValidator
func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{validate: validator.New()}
}

// Validate returns nil, or a *catalog.ValidationErrors listing every failing field
// and attribute of the item.
func (v *PayloadValidator) Validate(item *catalog.Item, schema *Schema) error {
	issues := &catalog.ValidationErrors{}
	v.checkBuiltins(item, issues)
	for _, attributeType := range catalog.AttributeTypes {
		checkTarget(item, attributeType, schema, issues)
	}
	return issues.ErrOrNil()
}

// checkBuiltins applies the fixed item rules that do not come from definitions
func (v *PayloadValidator) checkBuiltins(item *catalog.Item, issues *catalog.ValidationErrors) {
	if item.BasePrice.IsNegative() {
		issues.Add(catalog.CodeInvalidField, "", "basePrice", "cannot be negative")
	}
	if err := v.validate.Var(item.Currency, "required,iso4217"); err != nil {
		issues.Add(catalog.CodeInvalidField, "", "currency", "\""+item.Currency+"\" is not an ISO 4217 currency code")
	}
	if !item.Status.IsValid() {
		issues.Add(catalog.CodeInvalidField, "", "status", "\""+string(item.Status)+"\" is not a known status")
	}
	if !item.Priority.IsValid() {
		issues.Add(catalog.CodeInvalidField, "", "priority", "\""+string(item.Priority)+"\" is not a known priority")
	}
	if item.HasVariants && item.VariantGroups.IsEmpty() {
		issues.Add(catalog.CodeInvalidField, "", "variantGroups", "is required when hasVariants is set")
	}
	if item.ComplianceRequired && item.RegulatoryFlags.IsEmpty() {
		issues.Add(catalog.CodeInvalidField, "", "regulatoryFlags", "is required when complianceRequired is set")
	}
}

func checkTarget(item *catalog.Item, attributeType catalog.AttributeType, schema *Schema, issues *catalog.ValidationErrors) {
	target := attributeType.Target()
	payload := item.PayloadFor(attributeType)
	defs := schema.ForTarget(attributeType)

	declared := make(map[string]struct{}, len(defs))
	for i := range defs {
		def := &defs[i]
		declared[def.Name] = struct{}{}

		value, ok := payload.Get(def.Name)
		if !ok || value == nil {
			if def.IsRequired {
				issues.Add(catalog.CodeMissingRequiredAttribute, target, def.Name, "is required")
			}
			continue
		}
		if reason := CheckValue(def, value); reason != "" {
			issues.Add(catalog.CodeAttributeValidationFailed, target, def.Name, reason)
		}
	}

	if schema.AllowUnknownKeys {
		return
	}
	keys := payload.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := declared[key]; !ok {
			issues.Add(catalog.CodeUnknownAttribute, target, key, "has no attribute definition")
		}
	}
}

// ApplyDefaults fills missing keys of the item's JSON fields with the declared
// default values and returns the names of the attributes it filled.
func ApplyDefaults(item *catalog.Item, schema *Schema) []string {
	var filled []string
	for _, attr := range schema.Attributes {
		if !attr.HasDefault() {
			continue
		}
		payload := item.PayloadFor(attr.AttributeType)
		if v, ok := payload.Get(attr.Name); ok && v != nil {
			continue
		}
		if payload == nil {
			payload = catalog.Payload{}
			setPayload(item, attr.AttributeType, payload)
		}
		payload[attr.Name] = attr.DefaultValue
		filled = append(filled, attr.Name)
	}
	return filled
}

func setPayload(item *catalog.Item, attributeType catalog.AttributeType, payload catalog.Payload) {
	switch attributeType {
	case catalog.AttributeTypeVariant:
		item.VariantGroups = payload
	case catalog.AttributeTypePricing:
		item.PricingRules = payload
	case catalog.AttributeTypeFulfillment:
		item.FulfillmentConfig = payload
	case catalog.AttributeTypeRegulatory:
		item.RegulatoryFlags = payload
	}
}
