package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// Category is a node of a store's category forest. IsActive and IsPublished are
// independent flags; neither affects the node's position in the hierarchy.
type Category struct {
	shared.OrganizationAggregateRoot
	StoreID     uuid.UUID
	ParentID    *uuid.UUID
	Name        string
	Slug        string
	Description *string
	ImageURL    *string
	IsActive    bool
	IsPublished bool
	SortOrder   int
}

// NewCategory creates a new root category in a store. An empty slug is derived from
// the name. Use CategoryHierarchy.AttachChild to place it under a parent.
func NewCategory(organizationID, storeID uuid.UUID, tenantID *string, name, slug string) (*Category, error) {
	if organizationID == uuid.Nil {
		return nil, invalidField("category organization", "is required")
	}
	if storeID == uuid.Nil {
		return nil, invalidField("category store", "is required")
	}
	if err := validateName("category name", name, 100); err != nil {
		return nil, err
	}
	if strings.TrimSpace(slug) == "" {
		slug = Slugify(name)
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validateSlug("category slug", slug); err != nil {
		return nil, err
	}

	return &Category{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID, tenantID),
		StoreID:                   storeID,
		Name:                      strings.TrimSpace(name),
		Slug:                      slug,
		IsActive:                  true,
	}, nil
}

// Ref returns the row reference of the category
func (c *Category) Ref() RowRef {
	return RowRef{Entity: EntityCategory, ID: c.ID}
}

// ScopeKey returns the scope the category lives in
func (c *Category) ScopeKey() ScopeKey {
	return NewScopeKey(c.OrganizationID, c.TenantID)
}

// UniqueTuple returns the category's compound unique key
func (c *Category) UniqueTuple() UniqueTuple {
	return CategorySlugTuple(c.Slug, c.StoreID, c.TenantID)
}

// IsRoot returns true if the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// Update changes the descriptive fields of the category
func (c *Category) Update(name, slug string, description, imageURL *string) error {
	if err := validateName("category name", name, 100); err != nil {
		return err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		slug = c.Slug
	}
	if err := validateSlug("category slug", slug); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Slug = slug
	c.Description = optionalString(description)
	c.ImageURL = optionalString(imageURL)
	c.IncrementVersion()
	return nil
}

// SetParent records a new parent. Callers must go through CategoryHierarchy, which
// checks acyclicity and scope before calling this.
func (c *Category) SetParent(parentID *uuid.UUID) {
	c.ParentID = parentID
	c.IncrementVersion()
}

// SetSortOrder sets the position among siblings
func (c *Category) SetSortOrder(order int) {
	c.SortOrder = order
	c.IncrementVersion()
}

// Activate marks the category active
func (c *Category) Activate() {
	if c.IsActive {
		return
	}
	c.IsActive = true
	c.IncrementVersion()
}

// Deactivate marks the category inactive
func (c *Category) Deactivate() {
	if !c.IsActive {
		return
	}
	c.IsActive = false
	c.IncrementVersion()
}

// Publish marks the category published
func (c *Category) Publish() {
	if c.IsPublished {
		return
	}
	c.IsPublished = true
	c.IncrementVersion()
}

// Unpublish marks the category unpublished
func (c *Category) Unpublish() {
	if !c.IsPublished {
		return
	}
	c.IsPublished = false
	c.IncrementVersion()
}
