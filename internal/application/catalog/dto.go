package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/catalog"
)

// CreateOrganizationRequest represents a request to create a new organization
type CreateOrganizationRequest struct {
	Name         string         `json:"name" validate:"required,min=1,max=200"`
	Slug         string         `json:"slug" validate:"omitempty,max=100"`
	TenantID     *string        `json:"tenant_id" validate:"omitempty,max=100"`
	Description  *string        `json:"description" validate:"omitempty,max=2000"`
	ContactEmail *string        `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string        `json:"contact_phone" validate:"omitempty,max=50"`
	Website      *string        `json:"website" validate:"omitempty,url"`
	Address      map[string]any `json:"address"`
	Settings     map[string]any `json:"settings"`
	IsPublic     bool           `json:"is_public"`
}

// UpdateOrganizationRequest represents a partial update of an organization
type UpdateOrganizationRequest struct {
	ID           uuid.UUID      `json:"id" validate:"required"`
	Name         *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Slug         *string        `json:"slug" validate:"omitempty,max=100"`
	Description  *string        `json:"description" validate:"omitempty,max=2000"`
	ContactEmail *string        `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string        `json:"contact_phone" validate:"omitempty,max=50"`
	Website      *string        `json:"website" validate:"omitempty,url"`
	Address      map[string]any `json:"address"`
	Settings     map[string]any `json:"settings"`
	IsPublic     *bool          `json:"is_public"`
}

// CreateStoreRequest represents a request to create a store
type CreateStoreRequest struct {
	OrganizationID uuid.UUID      `json:"organization_id" validate:"required"`
	TenantID       *string        `json:"tenant_id" validate:"omitempty,max=100"`
	Name           string         `json:"name" validate:"required,min=1,max=200"`
	DisplayName    *string        `json:"display_name" validate:"omitempty,max=200"`
	Address        map[string]any `json:"address" validate:"required,min=1"`
	Timezone       *string        `json:"timezone" validate:"omitempty,timezone"`
	StoreType      *string        `json:"store_type" validate:"omitempty,max=50"`
	OperatingHours map[string]any `json:"operating_hours"`
}

// UpdateStoreRequest represents a partial update of a store
type UpdateStoreRequest struct {
	ID             uuid.UUID      `json:"id" validate:"required"`
	Name           *string        `json:"name" validate:"omitempty,min=1,max=200"`
	DisplayName    *string        `json:"display_name" validate:"omitempty,max=200"`
	Address        map[string]any `json:"address" validate:"omitempty,min=1"`
	Timezone       *string        `json:"timezone" validate:"omitempty,timezone"`
	StoreType      *string        `json:"store_type" validate:"omitempty,max=50"`
	OperatingHours map[string]any `json:"operating_hours"`
}

// CreateCategoryRequest represents a request to create a category. The organization
// and tenant are taken from the store.
type CreateCategoryRequest struct {
	StoreID     uuid.UUID  `json:"store_id" validate:"required"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Name        string     `json:"name" validate:"required,min=1,max=100"`
	Slug        string     `json:"slug" validate:"omitempty,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url,max=500"`
	SortOrder   *int       `json:"sort_order" validate:"omitempty,gte=0"`
	IsPublished bool       `json:"is_published"`
}

// UpdateCategoryRequest represents a partial update of a category. Position changes
// go through MoveCategoryRequest.
type UpdateCategoryRequest struct {
	ID          uuid.UUID `json:"id" validate:"required"`
	Name        *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string   `json:"slug" validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string   `json:"image_url" validate:"omitempty,url,max=500"`
	IsActive    *bool     `json:"is_active"`
	IsPublished *bool     `json:"is_published"`
}

// MoveCategoryRequest re-parents a category. A nil parent makes it a root.
type MoveCategoryRequest struct {
	ID       uuid.UUID  `json:"id" validate:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// ReorderCategoriesRequest lists the complete sibling set under one parent in its new order
type ReorderCategoriesRequest struct {
	StoreID    uuid.UUID   `json:"store_id" validate:"required"`
	ParentID   *uuid.UUID  `json:"parent_id"`
	OrderedIDs []uuid.UUID `json:"ordered_ids" validate:"required,dive,required"`
}

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	OrganizationID     uuid.UUID        `json:"organization_id" validate:"required"`
	TenantID           *string          `json:"tenant_id" validate:"omitempty,max=100"`
	StoreID            *uuid.UUID       `json:"store_id"`
	CategoryID         *uuid.UUID       `json:"category_id"`
	SKU                string           `json:"sku" validate:"required,min=1,max=64"`
	Name               string           `json:"name" validate:"required,min=1,max=200"`
	CategoryType       string           `json:"category_type" validate:"required,min=1,max=50"`
	Description        *string          `json:"description" validate:"omitempty,max=5000"`
	HasVariants        bool             `json:"has_variants"`
	VariantGroups      map[string]any   `json:"variant_groups"`
	FulfillmentMethod  string           `json:"fulfillment_method" validate:"omitempty,max=50"`
	FulfillmentConfig  map[string]any   `json:"fulfillment_config"`
	RegulatoryFlags    map[string]any   `json:"regulatory_flags"`
	ComplianceRequired bool             `json:"compliance_required"`
	BasePrice          *decimal.Decimal `json:"base_price"`
	Currency           string           `json:"currency" validate:"omitempty,len=3"`
	PricingRules       map[string]any   `json:"pricing_rules"`
	Status             string           `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE"`
	Priority           string           `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Tags               []string         `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	Metadata           map[string]any   `json:"metadata"`
}

// UpdateItemRequest represents a partial update of an item. A non-nil payload map
// replaces the stored payload.
type UpdateItemRequest struct {
	ID                 uuid.UUID        `json:"id" validate:"required"`
	StoreID            *uuid.UUID       `json:"store_id"`
	CategoryID         *uuid.UUID       `json:"category_id"`
	ClearPlacement     bool             `json:"clear_placement"`
	SKU                *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Name               *string          `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryType       *string          `json:"category_type" validate:"omitempty,min=1,max=50"`
	Description        *string          `json:"description" validate:"omitempty,max=5000"`
	HasVariants        *bool            `json:"has_variants"`
	VariantGroups      map[string]any   `json:"variant_groups"`
	FulfillmentMethod  *string          `json:"fulfillment_method" validate:"omitempty,min=1,max=50"`
	FulfillmentConfig  map[string]any   `json:"fulfillment_config"`
	RegulatoryFlags    map[string]any   `json:"regulatory_flags"`
	ComplianceRequired *bool            `json:"compliance_required"`
	BasePrice          *decimal.Decimal `json:"base_price"`
	Currency           *string          `json:"currency" validate:"omitempty,len=3"`
	PricingRules       map[string]any   `json:"pricing_rules"`
	Status             *string          `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED DELETED"`
	Priority           *string          `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Tags               []string         `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	Metadata           map[string]any   `json:"metadata"`
}

// ListItemsRequest represents filter options for the item list of one scope
type ListItemsRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id" validate:"required"`
	TenantID       *string    `json:"tenant_id" validate:"omitempty,max=100"`
	StoreID        *uuid.UUID `json:"store_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	Search         string     `json:"search" validate:"omitempty,max=100"`
	Status         string     `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED DELETED"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	CategoryType   string     `json:"category_type" validate:"omitempty,max=50"`
	Page           int        `json:"page" validate:"omitempty,min=1"`
	PageSize       int        `json:"page_size" validate:"omitempty,min=1,max=100"`
	OrderBy        string     `json:"order_by"`
	OrderDir       string     `json:"order_dir" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// DefineAttributeRequest represents a request to define a new item attribute
type DefineAttributeRequest struct {
	OrganizationID  uuid.UUID                `json:"organization_id" validate:"required"`
	TenantID        *string                  `json:"tenant_id" validate:"omitempty,max=100"`
	Name            string                   `json:"name" validate:"required,min=1,max=100"`
	DisplayName     string                   `json:"display_name" validate:"omitempty,max=200"`
	AttributeType   string                   `json:"attribute_type" validate:"required,oneof=variant pricing fulfillment regulatory"`
	DataType        string                   `json:"data_type" validate:"required,oneof=string number boolean enum date json"`
	IsRequired      bool                     `json:"is_required"`
	DefaultValue    any                      `json:"default_value"`
	ValidationRules *catalog.ValidationRules `json:"validation_rules"`
	SortOrder       int                      `json:"sort_order" validate:"gte=0"`
}

// UpdateAttributeRequest represents a partial update of an attribute definition.
// The name is immutable because stored payloads are keyed by it.
type UpdateAttributeRequest struct {
	ID              uuid.UUID                `json:"id" validate:"required"`
	DisplayName     *string                  `json:"display_name" validate:"omitempty,min=1,max=200"`
	AttributeType   *string                  `json:"attribute_type" validate:"omitempty,oneof=variant pricing fulfillment regulatory"`
	DataType        *string                  `json:"data_type" validate:"omitempty,oneof=string number boolean enum date json"`
	IsRequired      *bool                    `json:"is_required"`
	DefaultValue    any                      `json:"default_value"`
	ClearDefault    bool                     `json:"clear_default"`
	ValidationRules *catalog.ValidationRules `json:"validation_rules"`
	ClearRules      bool                     `json:"clear_rules"`
	SortOrder       *int                     `json:"sort_order" validate:"omitempty,gte=0"`
	IsActive        *bool                    `json:"is_active"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email          string     `json:"email" validate:"required,email,max=200"`
	Name           *string    `json:"name" validate:"omitempty,max=200"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// OrganizationResponse represents an organization in responses
type OrganizationResponse struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     *string        `json:"tenant_id,omitempty"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  *string        `json:"description,omitempty"`
	ContactEmail *string        `json:"contact_email,omitempty"`
	ContactPhone *string        `json:"contact_phone,omitempty"`
	Website      *string        `json:"website,omitempty"`
	Address      map[string]any `json:"address,omitempty"`
	Settings     map[string]any `json:"settings"`
	IsActive     bool           `json:"is_active"`
	IsPublic     bool           `json:"is_public"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Version      int            `json:"version"`
}

// StoreResponse represents a store in responses
type StoreResponse struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	TenantID       *string        `json:"tenant_id,omitempty"`
	Name           string         `json:"name"`
	DisplayName    *string        `json:"display_name,omitempty"`
	Address        map[string]any `json:"address"`
	Timezone       *string        `json:"timezone,omitempty"`
	StoreType      *string        `json:"store_type,omitempty"`
	OperatingHours map[string]any `json:"operating_hours,omitempty"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Version        int            `json:"version"`
}

// CategoryResponse represents a category in responses
type CategoryResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	StoreID        uuid.UUID  `json:"store_id"`
	TenantID       *string    `json:"tenant_id,omitempty"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    *string    `json:"description,omitempty"`
	ImageURL       *string    `json:"image_url,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsPublished    bool       `json:"is_published"`
	SortOrder      int        `json:"sort_order"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int        `json:"version"`
}

// CategoryTreeNode represents a category with its ordered children
type CategoryTreeNode struct {
	CategoryResponse
	Children []CategoryTreeNode `json:"children"`
}

// ItemResponse represents an item in responses
type ItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OrganizationID     uuid.UUID       `json:"organization_id"`
	TenantID           *string         `json:"tenant_id,omitempty"`
	StoreID            *uuid.UUID      `json:"store_id,omitempty"`
	CategoryID         *uuid.UUID      `json:"category_id,omitempty"`
	CategoryType       string          `json:"category_type"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	HasVariants        bool            `json:"has_variants"`
	VariantGroups      map[string]any  `json:"variant_groups,omitempty"`
	FulfillmentMethod  string          `json:"fulfillment_method"`
	FulfillmentConfig  map[string]any  `json:"fulfillment_config"`
	RegulatoryFlags    map[string]any  `json:"regulatory_flags"`
	ComplianceRequired bool            `json:"compliance_required"`
	BasePrice          decimal.Decimal `json:"base_price"`
	Currency           string          `json:"currency"`
	PricingRules       map[string]any  `json:"pricing_rules"`
	Status             string          `json:"status"`
	Priority           string          `json:"priority"`
	Tags               []string        `json:"tags"`
	Metadata           map[string]any  `json:"metadata,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// ItemListResponse is one page of items
type ItemListResponse struct {
	Items      []ItemResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// AttributeResponse represents an attribute definition in responses
type AttributeResponse struct {
	ID              uuid.UUID                `json:"id"`
	OrganizationID  uuid.UUID                `json:"organization_id"`
	TenantID        *string                  `json:"tenant_id,omitempty"`
	Name            string                   `json:"name"`
	DisplayName     string                   `json:"display_name"`
	AttributeType   string                   `json:"attribute_type"`
	DataType        string                   `json:"data_type"`
	IsRequired      bool                     `json:"is_required"`
	DefaultValue    any                      `json:"default_value,omitempty"`
	ValidationRules *catalog.ValidationRules `json:"validation_rules,omitempty"`
	SortOrder       int                      `json:"sort_order"`
	IsActive        bool                     `json:"is_active"`
	Version         int                      `json:"version"`
}

// UserResponse represents a user in responses
type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           *string    `json:"name,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Version        int        `json:"version"`
}

// PlanSummary describes what a delete or deactivation changed
type PlanSummary struct {
	Root        string         `json:"root"`
	Deleted     map[string]int `json:"deleted,omitempty"`
	Detached    map[string]int `json:"detached,omitempty"`
	Deactivated map[string]int `json:"deactivated,omitempty"`
}

// ToOrganizationResponse converts a domain Organization to OrganizationResponse
func ToOrganizationResponse(o *catalog.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:           o.ID,
		TenantID:     o.TenantID,
		Name:         o.Name,
		Slug:         o.Slug,
		Description:  o.Description,
		ContactEmail: o.ContactEmail,
		ContactPhone: o.ContactPhone,
		Website:      o.Website,
		Address:      o.Address,
		Settings:     o.Settings,
		IsActive:     o.IsActive,
		IsPublic:     o.IsPublic,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

// ToStoreResponse converts a domain Store to StoreResponse
func ToStoreResponse(s *catalog.Store) StoreResponse {
	return StoreResponse{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		TenantID:       s.TenantID,
		Name:           s.Name,
		DisplayName:    s.DisplayName,
		Address:        s.Address,
		Timezone:       s.Timezone,
		StoreType:      s.StoreType,
		OperatingHours: s.OperatingHours,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		StoreID:        c.StoreID,
		TenantID:       c.TenantID,
		ParentID:       c.ParentID,
		Name:           c.Name,
		Slug:           c.Slug,
		Description:    c.Description,
		ImageURL:       c.ImageURL,
		IsActive:       c.IsActive,
		IsPublished:    c.IsPublished,
		SortOrder:      c.SortOrder,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Version:        c.Version,
	}
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(i *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:                 i.ID,
		OrganizationID:     i.OrganizationID,
		TenantID:           i.TenantID,
		StoreID:            i.StoreID,
		CategoryID:         i.CategoryID,
		CategoryType:       i.CategoryType,
		SKU:                i.SKU,
		Name:               i.Name,
		Description:        i.Description,
		HasVariants:        i.HasVariants,
		VariantGroups:      i.VariantGroups,
		FulfillmentMethod:  i.FulfillmentMethod,
		FulfillmentConfig:  i.FulfillmentConfig,
		RegulatoryFlags:    i.RegulatoryFlags,
		ComplianceRequired: i.ComplianceRequired,
		BasePrice:          i.BasePrice,
		Currency:           i.Currency,
		PricingRules:       i.PricingRules,
		Status:             string(i.Status),
		Priority:           string(i.Priority),
		Tags:               i.Tags,
		Metadata:           i.Metadata,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
		Version:            i.Version,
	}
}

// ToAttributeResponse converts a domain ItemAttribute to AttributeResponse
func ToAttributeResponse(a *catalog.ItemAttribute) AttributeResponse {
	return AttributeResponse{
		ID:              a.ID,
		OrganizationID:  a.OrganizationID,
		TenantID:        a.TenantID,
		Name:            a.Name,
		DisplayName:     a.DisplayName,
		AttributeType:   string(a.AttributeType),
		DataType:        string(a.DataType),
		IsRequired:      a.IsRequired,
		DefaultValue:    a.DefaultValue,
		ValidationRules: a.ValidationRules,
		SortOrder:       a.SortOrder,
		IsActive:        a.IsActive,
		Version:         a.Version,
	}
}

// ToUserResponse converts a domain User to UserResponse
func ToUserResponse(u *catalog.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		OrganizationID: u.OrganizationID,
		Version:        u.Version,
	}
}

// toCategoryTree converts the roots of a domain tree into response nodes
func toCategoryTree(nodes []*catalog.TreeNode) []CategoryTreeNode {
	out := make([]CategoryTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, CategoryTreeNode{
			CategoryResponse: ToCategoryResponse(n.Category),
			Children:         toCategoryTree(n.Children),
		})
	}
	return out
}

// summarize counts a plan's mutations per entity type
func summarize(plan *catalog.Plan) PlanSummary {
	summary := PlanSummary{Root: plan.Root.String()}
	if len(plan.Deletes) > 0 {
		summary.Deleted = make(map[string]int)
		for _, ref := range plan.Deletes {
			summary.Deleted[string(ref.Entity)]++
		}
	}
	if len(plan.Nullifications) > 0 {
		summary.Detached = make(map[string]int)
		for _, n := range plan.Nullifications {
			summary.Detached[string(n.Target.Entity)]++
		}
	}
	if len(plan.Deactivations) > 0 {
		summary.Deactivated = make(map[string]int)
		for _, d := range plan.Deactivations {
			summary.Deactivated[string(d.Target.Entity)]++
		}
	}
	return summary
}
