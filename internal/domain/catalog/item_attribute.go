package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// DataType tags the value shape an attribute definition accepts
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeEnum    DataType = "enum"
	DataTypeDate    DataType = "date"
	DataTypeJSON    DataType = "json"
)

// DataTypes lists every supported data type
var DataTypes = []DataType{DataTypeString, DataTypeNumber, DataTypeBoolean, DataTypeEnum, DataTypeDate, DataTypeJSON}

// IsValid reports whether d is a supported data type
func (d DataType) IsValid() bool {
	for _, known := range DataTypes {
		if d == known {
			return true
		}
	}
	return false
}

// AttributeType selects which Item JSON field an attribute definition governs
type AttributeType string

const (
	AttributeTypeVariant     AttributeType = "variant"
	AttributeTypePricing     AttributeType = "pricing"
	AttributeTypeFulfillment AttributeType = "fulfillment"
	AttributeTypeRegulatory  AttributeType = "regulatory"
)

// AttributeTypes lists every attribute type in validation order
var AttributeTypes = []AttributeType{AttributeTypeVariant, AttributeTypePricing, AttributeTypeFulfillment, AttributeTypeRegulatory}

// IsValid reports whether t is a supported attribute type
func (t AttributeType) IsValid() bool {
	for _, known := range AttributeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Target returns the name of the Item field the attribute type governs
func (t AttributeType) Target() string {
	switch t {
	case AttributeTypeVariant:
		return "variantGroups"
	case AttributeTypePricing:
		return "pricingRules"
	case AttributeTypeFulfillment:
		return "fulfillmentConfig"
	case AttributeTypeRegulatory:
		return "regulatoryFlags"
	}
	return ""
}

// PayloadFor returns the Item JSON field governed by attribute type t
func (i *Item) PayloadFor(t AttributeType) Payload {
	switch t {
	case AttributeTypeVariant:
		return i.VariantGroups
	case AttributeTypePricing:
		return i.PricingRules
	case AttributeTypeFulfillment:
		return i.FulfillmentConfig
	case AttributeTypeRegulatory:
		return i.RegulatoryFlags
	}
	return nil
}

// ValidationRules is the structured rule set of an attribute definition. Which fields
// apply depends on the definition's data type.
type ValidationRules struct {
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Integer       bool     `json:"integer,omitempty"`
	MinLength     *int     `json:"minLength,omitempty"`
	MaxLength     *int     `json:"maxLength,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	MinDate       string   `json:"minDate,omitempty"`
	MaxDate       string   `json:"maxDate,omitempty"`
	RequiredKeys  []string `json:"requiredKeys,omitempty"`
}

// ItemAttribute is a tenant-authored definition of one dynamic Item field
type ItemAttribute struct {
	shared.OrganizationAggregateRoot
	Name            string
	DisplayName     string
	AttributeType   AttributeType
	DataType        DataType
	IsRequired      bool
	DefaultValue    any
	ValidationRules *ValidationRules
	SortOrder       int
	IsActive        bool
}

// NewItemAttribute creates a new active attribute definition. The definition is
// checked for internal consistency by the attribute registry.
func NewItemAttribute(organizationID uuid.UUID, tenantID *string, name, displayName string, attributeType AttributeType, dataType DataType) (*ItemAttribute, error) {
	if organizationID == uuid.Nil {
		return nil, invalidField("attribute organization", "is required")
	}
	if err := validateAttributeName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = name
	}
	if err := validateName("attribute display name", displayName, 200); err != nil {
		return nil, err
	}
	if !attributeType.IsValid() {
		return nil, invalidField("attribute type", fmt.Sprintf("%q is not supported", attributeType))
	}
	if !dataType.IsValid() {
		return nil, invalidField("attribute data type", fmt.Sprintf("%q is not supported", dataType))
	}

	return &ItemAttribute{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID, tenantID),
		Name:                      strings.TrimSpace(name),
		DisplayName:               strings.TrimSpace(displayName),
		AttributeType:             attributeType,
		DataType:                  dataType,
		IsActive:                  true,
	}, nil
}

// Ref returns the row reference of the attribute
func (a *ItemAttribute) Ref() RowRef {
	return RowRef{Entity: EntityItemAttribute, ID: a.ID}
}

// ScopeKey returns the scope the attribute lives in
func (a *ItemAttribute) ScopeKey() ScopeKey {
	return NewScopeKey(a.OrganizationID, a.TenantID)
}

// UniqueTuple returns the attribute's compound unique key
func (a *ItemAttribute) UniqueTuple() UniqueTuple {
	return ItemAttributeNameTuple(a.Name, a.OrganizationID, a.TenantID)
}

// Update changes the definition. Existing item payloads are not revalidated.
func (a *ItemAttribute) Update(displayName string, attributeType AttributeType, dataType DataType) error {
	if err := validateName("attribute display name", displayName, 200); err != nil {
		return err
	}
	if !attributeType.IsValid() {
		return invalidField("attribute type", fmt.Sprintf("%q is not supported", attributeType))
	}
	if !dataType.IsValid() {
		return invalidField("attribute data type", fmt.Sprintf("%q is not supported", dataType))
	}
	a.DisplayName = strings.TrimSpace(displayName)
	a.AttributeType = attributeType
	a.DataType = dataType
	a.IncrementVersion()
	return nil
}

// SetRequirement sets the required flag, default value and rules
func (a *ItemAttribute) SetRequirement(required bool, defaultValue any, rules *ValidationRules) {
	a.IsRequired = required
	a.DefaultValue = defaultValue
	a.ValidationRules = rules
	a.IncrementVersion()
}

// SetSortOrder sets the resolution order of the definition
func (a *ItemAttribute) SetSortOrder(order int) {
	a.SortOrder = order
	a.IncrementVersion()
}

// Activate marks the definition active
func (a *ItemAttribute) Activate() {
	if a.IsActive {
		return
	}
	a.IsActive = true
	a.IncrementVersion()
}

// Deactivate removes the definition from future resolution
func (a *ItemAttribute) Deactivate() {
	if !a.IsActive {
		return
	}
	a.IsActive = false
	a.IncrementVersion()
}

// HasDefault reports whether a default value is declared
func (a *ItemAttribute) HasDefault() bool {
	return a.DefaultValue != nil
}

func validateAttributeName(name string) error {
	if err := validateName("attribute name", name, 100); err != nil {
		return err
	}
	for _, r := range strings.TrimSpace(name) {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return invalidField("attribute name", "can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}
