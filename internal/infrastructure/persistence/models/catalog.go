package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
)

// The composite unique indexes below mirror the naive SQL constraints: NULL tenant
// values never collide in them, so they are a lookup aid and a last line of defence,
// not the source of truth for uniqueness.

// OrganizationModel is the persistence model for the Organization aggregate root.
type OrganizationModel struct {
	AggregateModel
	Name         string  `gorm:"type:varchar(200);not null"`
	Slug         string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_organizations_slug_tenant,priority:1"`
	Description  *string `gorm:"type:text"`
	ContactEmail *string `gorm:"type:varchar(200)"`
	ContactPhone *string `gorm:"type:varchar(50)"`
	Website      *string `gorm:"type:varchar(500)"`
	Address      *string `gorm:"type:jsonb"`
	Settings     *string `gorm:"type:jsonb"`
	IsActive     bool    `gorm:"not null"`
	IsPublic     bool    `gorm:"not null;default:false"`
	TenantID     *string `gorm:"type:varchar(100);uniqueIndex:idx_organizations_slug_tenant,priority:2"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization entity.
func (m *OrganizationModel) ToDomain() (*catalog.Organization, error) {
	address, err := decodePayload("organizations.address", m.Address)
	if err != nil {
		return nil, err
	}
	settings, err := decodePayload("organizations.settings", m.Settings)
	if err != nil {
		return nil, err
	}
	return &catalog.Organization{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ContactEmail:      m.ContactEmail,
		ContactPhone:      m.ContactPhone,
		Website:           m.Website,
		Address:           address,
		Settings:          settings,
		IsActive:          m.IsActive,
		IsPublic:          m.IsPublic,
		TenantID:          shared.NormalizeTenantID(m.TenantID),
	}, nil
}

// OrganizationModelFromDomain creates a persistence model from a domain Organization entity.
func OrganizationModelFromDomain(o *catalog.Organization) (*OrganizationModel, error) {
	address, err := encodePayload(o.Address)
	if err != nil {
		return nil, err
	}
	settings, err := encodePayload(o.Settings)
	if err != nil {
		return nil, err
	}
	m := &OrganizationModel{
		Name:         o.Name,
		Slug:         o.Slug,
		Description:  o.Description,
		ContactEmail: o.ContactEmail,
		ContactPhone: o.ContactPhone,
		Website:      o.Website,
		Address:      address,
		Settings:     settings,
		IsActive:     o.IsActive,
		IsPublic:     o.IsPublic,
		TenantID:     shared.NormalizeTenantID(o.TenantID),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m, nil
}

// StoreModel is the persistence model for the Store aggregate root.
type StoreModel struct {
	AggregateModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID       *string   `gorm:"type:varchar(100);index"`
	Name           string    `gorm:"type:varchar(200);not null"`
	DisplayName    *string   `gorm:"type:varchar(200)"`
	Address        *string   `gorm:"type:jsonb;not null"`
	Timezone       *string   `gorm:"type:varchar(64)"`
	IsActive       bool      `gorm:"not null"`
	StoreType      *string   `gorm:"type:varchar(50)"`
	OperatingHours *string   `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store entity.
func (m *StoreModel) ToDomain() (*catalog.Store, error) {
	address, err := decodePayload("stores.address", m.Address)
	if err != nil {
		return nil, err
	}
	hours, err := decodePayload("stores.operating_hours", m.OperatingHours)
	if err != nil {
		return nil, err
	}
	return &catalog.Store{
		OrganizationAggregateRoot: m.toOrganizationAggregateRoot(m.OrganizationID, m.TenantID),
		Name:                      m.Name,
		DisplayName:               m.DisplayName,
		Address:                   address,
		Timezone:                  m.Timezone,
		IsActive:                  m.IsActive,
		StoreType:                 m.StoreType,
		OperatingHours:            hours,
	}, nil
}

// StoreModelFromDomain creates a persistence model from a domain Store entity.
func StoreModelFromDomain(s *catalog.Store) (*StoreModel, error) {
	address, err := encodePayload(s.Address)
	if err != nil {
		return nil, err
	}
	hours, err := encodePayload(s.OperatingHours)
	if err != nil {
		return nil, err
	}
	m := &StoreModel{
		OrganizationID: s.OrganizationID,
		TenantID:       shared.NormalizeTenantID(s.TenantID),
		Name:           s.Name,
		DisplayName:    s.DisplayName,
		Address:        address,
		Timezone:       s.Timezone,
		IsActive:       s.IsActive,
		StoreType:      s.StoreType,
		OperatingHours: hours,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m, nil
}

// CategoryModel is the persistence model for the Category aggregate root.
type CategoryModel struct {
	AggregateModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	StoreID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_categories_store_slug_tenant,priority:1"`
	TenantID       *string    `gorm:"type:varchar(100);uniqueIndex:idx_categories_store_slug_tenant,priority:3"`
	ParentID       *uuid.UUID `gorm:"type:uuid;index"`
	Name           string     `gorm:"type:varchar(100);not null"`
	Slug           string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_store_slug_tenant,priority:2"`
	Description    *string    `gorm:"type:text"`
	ImageURL       *string    `gorm:"type:varchar(500)"`
	IsActive       bool       `gorm:"not null"`
	IsPublished    bool       `gorm:"not null;default:false"`
	SortOrder      int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		OrganizationAggregateRoot: m.toOrganizationAggregateRoot(m.OrganizationID, m.TenantID),
		StoreID:                   m.StoreID,
		ParentID:                  m.ParentID,
		Name:                      m.Name,
		Slug:                      m.Slug,
		Description:               m.Description,
		ImageURL:                  m.ImageURL,
		IsActive:                  m.IsActive,
		IsPublished:               m.IsPublished,
		SortOrder:                 m.SortOrder,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		OrganizationID: c.OrganizationID,
		StoreID:        c.StoreID,
		TenantID:       shared.NormalizeTenantID(c.TenantID),
		ParentID:       c.ParentID,
		Name:           c.Name,
		Slug:           c.Slug,
		Description:    c.Description,
		ImageURL:       c.ImageURL,
		IsActive:       c.IsActive,
		IsPublished:    c.IsPublished,
		SortOrder:      c.SortOrder,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// ItemModel is the persistence model for the Item aggregate root.
type ItemModel struct {
	AggregateModel
	OrganizationID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_items_org_sku_tenant,priority:1"`
	TenantID           *string         `gorm:"type:varchar(100);uniqueIndex:idx_items_org_sku_tenant,priority:3"`
	StoreID            *uuid.UUID      `gorm:"type:uuid;index"`
	CategoryID         *uuid.UUID      `gorm:"type:uuid;index"`
	CategoryType       string          `gorm:"type:varchar(50);not null"`
	SKU                string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_items_org_sku_tenant,priority:2"`
	Name               string          `gorm:"type:varchar(200);not null"`
	Description        *string         `gorm:"type:text"`
	HasVariants        bool            `gorm:"not null;default:false"`
	VariantGroups      *string         `gorm:"type:jsonb"`
	FulfillmentMethod  string          `gorm:"type:varchar(50);not null;default:'STANDARD'"`
	FulfillmentConfig  *string         `gorm:"type:jsonb"`
	RegulatoryFlags    *string         `gorm:"type:jsonb"`
	ComplianceRequired bool            `gorm:"not null;default:false"`
	BasePrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency           string          `gorm:"type:varchar(3);not null;default:'USD'"`
	PricingRules       *string         `gorm:"type:jsonb"`
	Status             string          `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Priority           string          `gorm:"type:varchar(20);not null;default:'MEDIUM'"`
	Tags               *string         `gorm:"type:jsonb"`
	Metadata           *string         `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item entity.
func (m *ItemModel) ToDomain() (*catalog.Item, error) {
	item := &catalog.Item{
		OrganizationAggregateRoot: m.toOrganizationAggregateRoot(m.OrganizationID, m.TenantID),
		StoreID:                   m.StoreID,
		CategoryID:                m.CategoryID,
		CategoryType:              m.CategoryType,
		SKU:                       m.SKU,
		Name:                      m.Name,
		Description:               m.Description,
		HasVariants:               m.HasVariants,
		FulfillmentMethod:         m.FulfillmentMethod,
		ComplianceRequired:        m.ComplianceRequired,
		BasePrice:                 m.BasePrice,
		Currency:                  m.Currency,
		Status:                    catalog.ItemStatus(m.Status),
		Priority:                  catalog.ItemPriority(m.Priority),
		Tags:                      []string{},
	}
	blobs := []struct {
		column string
		src    *string
		dst    *catalog.Payload
	}{
		{"items.variant_groups", m.VariantGroups, &item.VariantGroups},
		{"items.fulfillment_config", m.FulfillmentConfig, &item.FulfillmentConfig},
		{"items.regulatory_flags", m.RegulatoryFlags, &item.RegulatoryFlags},
		{"items.pricing_rules", m.PricingRules, &item.PricingRules},
		{"items.metadata", m.Metadata, &item.Metadata},
	}
	for _, b := range blobs {
		p, err := decodePayload(b.column, b.src)
		if err != nil {
			return nil, err
		}
		*b.dst = p
	}
	if err := decodeJSON("items.tags", m.Tags, &item.Tags); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemModelFromDomain creates a persistence model from a domain Item entity.
func ItemModelFromDomain(i *catalog.Item) (*ItemModel, error) {
	m := &ItemModel{
		OrganizationID:     i.OrganizationID,
		TenantID:           shared.NormalizeTenantID(i.TenantID),
		StoreID:            i.StoreID,
		CategoryID:         i.CategoryID,
		CategoryType:       i.CategoryType,
		SKU:                i.SKU,
		Name:               i.Name,
		Description:        i.Description,
		HasVariants:        i.HasVariants,
		FulfillmentMethod:  i.FulfillmentMethod,
		ComplianceRequired: i.ComplianceRequired,
		BasePrice:          i.BasePrice,
		Currency:           i.Currency,
		Status:             string(i.Status),
		Priority:           string(i.Priority),
	}
	blobs := []struct {
		src catalog.Payload
		dst **string
	}{
		{i.VariantGroups, &m.VariantGroups},
		{i.FulfillmentConfig, &m.FulfillmentConfig},
		{i.RegulatoryFlags, &m.RegulatoryFlags},
		{i.PricingRules, &m.PricingRules},
		{i.Metadata, &m.Metadata},
	}
	for _, b := range blobs {
		s, err := encodePayload(b.src)
		if err != nil {
			return nil, err
		}
		*b.dst = s
	}
	tags, err := encodeJSON(i.Tags)
	if err != nil {
		return nil, err
	}
	m.Tags = tags
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	return m, nil
}

// ItemAttributeModel is the persistence model for the ItemAttribute aggregate root.
type ItemAttributeModel struct {
	AggregateModel
	OrganizationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_attributes_org_name_tenant,priority:1"`
	TenantID        *string   `gorm:"type:varchar(100);uniqueIndex:idx_item_attributes_org_name_tenant,priority:3"`
	Name            string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_item_attributes_org_name_tenant,priority:2"`
	DisplayName     string    `gorm:"type:varchar(200);not null"`
	AttributeType   string    `gorm:"type:varchar(20);not null"`
	DataType        string    `gorm:"type:varchar(20);not null"`
	IsRequired      bool      `gorm:"not null;default:false"`
	DefaultValue    *string   `gorm:"type:text"`
	ValidationRules *string   `gorm:"type:jsonb"`
	SortOrder       int       `gorm:"not null;default:0"`
	IsActive        bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ItemAttributeModel) TableName() string {
	return "item_attributes"
}

// ToDomain converts the persistence model to a domain ItemAttribute entity.
func (m *ItemAttributeModel) ToDomain() (*catalog.ItemAttribute, error) {
	attr := &catalog.ItemAttribute{
		OrganizationAggregateRoot: m.toOrganizationAggregateRoot(m.OrganizationID, m.TenantID),
		Name:                      m.Name,
		DisplayName:               m.DisplayName,
		AttributeType:             catalog.AttributeType(m.AttributeType),
		DataType:                  catalog.DataType(m.DataType),
		IsRequired:                m.IsRequired,
		SortOrder:                 m.SortOrder,
		IsActive:                  m.IsActive,
	}
	if err := decodeJSON("item_attributes.default_value", m.DefaultValue, &attr.DefaultValue); err != nil {
		return nil, err
	}
	if m.ValidationRules != nil {
		attr.ValidationRules = &catalog.ValidationRules{}
		if err := decodeJSON("item_attributes.validation_rules", m.ValidationRules, attr.ValidationRules); err != nil {
			return nil, err
		}
	}
	return attr, nil
}

// ItemAttributeModelFromDomain creates a persistence model from a domain ItemAttribute entity.
func ItemAttributeModelFromDomain(a *catalog.ItemAttribute) (*ItemAttributeModel, error) {
	defaultValue, err := encodeJSON(a.DefaultValue)
	if err != nil {
		return nil, err
	}
	var rules *string
	if a.ValidationRules != nil {
		if rules, err = encodeJSON(a.ValidationRules); err != nil {
			return nil, err
		}
	}
	m := &ItemAttributeModel{
		OrganizationID:  a.OrganizationID,
		TenantID:        shared.NormalizeTenantID(a.TenantID),
		Name:            a.Name,
		DisplayName:     a.DisplayName,
		AttributeType:   string(a.AttributeType),
		DataType:        string(a.DataType),
		IsRequired:      a.IsRequired,
		DefaultValue:    defaultValue,
		ValidationRules: rules,
		SortOrder:       a.SortOrder,
		IsActive:        a.IsActive,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m, nil
}

// UserModel is the persistence model for the User aggregate root.
type UserModel struct {
	AggregateModel
	Email          string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name           *string    `gorm:"type:varchar(200)"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *catalog.User {
	return &catalog.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		OrganizationID:    m.OrganizationID,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity.
func UserModelFromDomain(u *catalog.User) *UserModel {
	m := &UserModel{
		Email:          u.Email,
		Name:           u.Name,
		OrganizationID: u.OrganizationID,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}

// AllModels returns every catalog model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&OrganizationModel{},
		&StoreModel{},
		&CategoryModel{},
		&ItemModel{},
		&ItemAttributeModel{},
		&UserModel{},
	}
}
