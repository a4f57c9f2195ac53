package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/shared"
)

// ItemStatus represents the lifecycle status of an item
type ItemStatus string

const (
	ItemStatusDraft    ItemStatus = "DRAFT"
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusArchived ItemStatus = "ARCHIVED"
	ItemStatusDeleted  ItemStatus = "DELETED"
)

// IsValid reports whether s is a known status
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusActive, ItemStatusArchived, ItemStatusDeleted:
		return true
	}
	return false
}

// ItemPriority represents the merchandising priority of an item
type ItemPriority string

const (
	ItemPriorityLow    ItemPriority = "LOW"
	ItemPriorityMedium ItemPriority = "MEDIUM"
	ItemPriorityHigh   ItemPriority = "HIGH"
	ItemPriorityUrgent ItemPriority = "URGENT"
)

// IsValid reports whether p is a known priority
func (p ItemPriority) IsValid() bool {
	switch p {
	case ItemPriorityLow, ItemPriorityMedium, ItemPriorityHigh, ItemPriorityUrgent:
		return true
	}
	return false
}

// itemTransitions lists the allowed status changes. DELETED is terminal.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusDraft:    {ItemStatusActive, ItemStatusArchived, ItemStatusDeleted},
	ItemStatusActive:   {ItemStatusArchived, ItemStatusDeleted},
	ItemStatusArchived: {ItemStatusActive, ItemStatusDeleted},
}

// Item is a sellable catalog entry. Its JSON fields are validated against the
// organization's attribute definitions before persistence.
type Item struct {
	shared.OrganizationAggregateRoot
	StoreID            *uuid.UUID
	CategoryID         *uuid.UUID
	CategoryType       string
	SKU                string
	Name               string
	Description        *string
	HasVariants        bool
	VariantGroups      Payload
	FulfillmentMethod  string
	FulfillmentConfig  Payload
	RegulatoryFlags    Payload
	ComplianceRequired bool
	BasePrice          decimal.Decimal
	Currency           string
	PricingRules       Payload
	Status             ItemStatus
	Priority           ItemPriority
	Tags               []string
	Metadata           Payload
}

// NewItem creates a new draft item owned by an organization
func NewItem(organizationID uuid.UUID, tenantID *string, sku, name, categoryType string) (*Item, error) {
	if organizationID == uuid.Nil {
		return nil, invalidField("item organization", "is required")
	}
	if err := validateName("item sku", sku, 64); err != nil {
		return nil, err
	}
	if err := validateName("item name", name, 200); err != nil {
		return nil, err
	}
	if err := validateName("item category type", categoryType, 50); err != nil {
		return nil, err
	}

	return &Item{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID, tenantID),
		CategoryType:              strings.TrimSpace(categoryType),
		SKU:                       strings.TrimSpace(sku),
		Name:                      strings.TrimSpace(name),
		FulfillmentMethod:         "STANDARD",
		FulfillmentConfig:         Payload{},
		RegulatoryFlags:           Payload{},
		PricingRules:              Payload{},
		BasePrice:                 decimal.Zero,
		Currency:                  "USD",
		Status:                    ItemStatusDraft,
		Priority:                  ItemPriorityMedium,
		Tags:                      []string{},
	}, nil
}

// Ref returns the row reference of the item
func (i *Item) Ref() RowRef {
	return RowRef{Entity: EntityItem, ID: i.ID}
}

// ScopeKey returns the scope the item lives in
func (i *Item) ScopeKey() ScopeKey {
	return NewScopeKey(i.OrganizationID, i.TenantID)
}

// UniqueTuple returns the item's compound unique key
func (i *Item) UniqueTuple() UniqueTuple {
	return ItemSKUTuple(i.SKU, i.OrganizationID, i.TenantID)
}

// Update changes the descriptive fields of the item
func (i *Item) Update(sku, name, categoryType string, description *string) error {
	if err := validateName("item sku", sku, 64); err != nil {
		return err
	}
	if err := validateName("item name", name, 200); err != nil {
		return err
	}
	if err := validateName("item category type", categoryType, 50); err != nil {
		return err
	}
	i.SKU = strings.TrimSpace(sku)
	i.Name = strings.TrimSpace(name)
	i.CategoryType = strings.TrimSpace(categoryType)
	i.Description = optionalString(description)
	i.IncrementVersion()
	return nil
}

// Place sets the optional store and category of the item. Containment is checked by
// the caller through CheckItemContainment.
func (i *Item) Place(storeID, categoryID *uuid.UUID) {
	i.StoreID = storeID
	i.CategoryID = categoryID
	i.IncrementVersion()
}

// SetPricing sets the base price, currency and pricing rules. The amount is checked
// here; the currency code is checked by the payload validator.
func (i *Item) SetPricing(basePrice decimal.Decimal, currency string, rules Payload) error {
	if basePrice.IsNegative() {
		return invalidField("item base price", "cannot be negative")
	}
	i.BasePrice = basePrice
	i.Currency = strings.ToUpper(strings.TrimSpace(currency))
	if rules == nil {
		rules = Payload{}
	}
	i.PricingRules = rules
	i.IncrementVersion()
	return nil
}

// SetVariants sets the variant flag and groups
func (i *Item) SetVariants(hasVariants bool, groups Payload) {
	i.HasVariants = hasVariants
	i.VariantGroups = groups
	i.IncrementVersion()
}

// SetFulfillment sets the fulfillment method and configuration
func (i *Item) SetFulfillment(method string, config Payload) error {
	if err := validateName("item fulfillment method", method, 50); err != nil {
		return err
	}
	i.FulfillmentMethod = strings.ToUpper(strings.TrimSpace(method))
	if config == nil {
		config = Payload{}
	}
	i.FulfillmentConfig = config
	i.IncrementVersion()
	return nil
}

// SetCompliance sets the regulatory flags and whether compliance is required
func (i *Item) SetCompliance(required bool, flags Payload) {
	i.ComplianceRequired = required
	if flags == nil {
		flags = Payload{}
	}
	i.RegulatoryFlags = flags
	i.IncrementVersion()
}

// SetPriority sets the merchandising priority
func (i *Item) SetPriority(priority ItemPriority) error {
	if !priority.IsValid() {
		return invalidField("item priority", fmt.Sprintf("%q is not a known priority", priority))
	}
	i.Priority = priority
	i.IncrementVersion()
	return nil
}

// SetTags replaces the tag list, dropping blanks and duplicates
func (i *Item) SetTags(tags []string) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	i.Tags = out
	i.IncrementVersion()
}

// SetMetadata replaces the free-form metadata payload
func (i *Item) SetMetadata(metadata Payload) {
	i.Metadata = metadata
	i.IncrementVersion()
}

// TransitionTo moves the item to a new status
func (i *Item) TransitionTo(status ItemStatus) error {
	if !status.IsValid() {
		return invalidField("item status", fmt.Sprintf("%q is not a known status", status))
	}
	if status == i.Status {
		return nil
	}
	for _, allowed := range itemTransitions[i.Status] {
		if allowed == status {
			i.Status = status
			i.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Item cannot move from %s to %s", i.Status, status))
}

// IsDeleted reports whether the item reached the terminal status
func (i *Item) IsDeleted() bool {
	return i.Status == ItemStatusDeleted
}
