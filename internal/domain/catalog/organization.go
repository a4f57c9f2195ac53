package catalog

import (
	"strings"

	"github.com/storefront/catalog/internal/domain/shared"
)

// SettingAllowUnknownKeys is the Organization.settings key controlling whether item
// payloads may carry keys with no attribute definition.
const SettingAllowUnknownKeys = "allowUnknownKeys"

// Organization is the root of every scope key
type Organization struct {
	shared.BaseAggregateRoot
	Name         string
	Slug         string
	Description  *string
	ContactEmail *string
	ContactPhone *string
	Website      *string
	Address      Payload
	Settings     Payload
	IsActive     bool
	IsPublic     bool
	TenantID     *string
}

// NewOrganization creates a new active organization. An empty slug is derived from the name.
func NewOrganization(name, slug string, tenantID *string) (*Organization, error) {
	if err := validateName("organization name", name, 200); err != nil {
		return nil, err
	}
	if strings.TrimSpace(slug) == "" {
		slug = Slugify(name)
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validateSlug("organization slug", slug); err != nil {
		return nil, err
	}

	return &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Slug:              slug,
		Settings:          Payload{},
		IsActive:          true,
		TenantID:          shared.NormalizeTenantID(tenantID),
	}, nil
}

// Ref returns the row reference of the organization
func (o *Organization) Ref() RowRef {
	return RowRef{Entity: EntityOrganization, ID: o.ID}
}

// ScopeKey returns the scope this organization roots
func (o *Organization) ScopeKey() ScopeKey {
	return NewScopeKey(o.ID, o.TenantID)
}

// UniqueTuple returns the organization's compound unique key
func (o *Organization) UniqueTuple() UniqueTuple {
	return OrganizationSlugTuple(o.Slug, o.TenantID)
}

// Rename changes the name and slug
func (o *Organization) Rename(name, slug string) error {
	if err := validateName("organization name", name, 200); err != nil {
		return err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		slug = o.Slug
	}
	if err := validateSlug("organization slug", slug); err != nil {
		return err
	}
	o.Name = strings.TrimSpace(name)
	o.Slug = slug
	o.IncrementVersion()
	return nil
}

// SetContact updates the optional contact fields
func (o *Organization) SetContact(description, email, phone, website *string) {
	o.Description = optionalString(description)
	o.ContactEmail = optionalString(email)
	o.ContactPhone = optionalString(phone)
	o.Website = optionalString(website)
	o.IncrementVersion()
}

// SetAddress replaces the address payload
func (o *Organization) SetAddress(address Payload) {
	o.Address = address
	o.IncrementVersion()
}

// SetSettings replaces the settings payload. Unrecognized keys are kept as-is.
func (o *Organization) SetSettings(settings Payload) {
	if settings == nil {
		settings = Payload{}
	}
	o.Settings = settings
	o.IncrementVersion()
}

// SetVisibility toggles the public flag
func (o *Organization) SetVisibility(public bool) {
	o.IsPublic = public
	o.IncrementVersion()
}

// Activate activates the organization
func (o *Organization) Activate() error {
	if o.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Organization is already active")
	}
	o.IsActive = true
	o.IncrementVersion()
	return nil
}

// Deactivate deactivates the organization
func (o *Organization) Deactivate() error {
	if !o.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Organization is already inactive")
	}
	o.IsActive = false
	o.IncrementVersion()
	return nil
}

// AllowUnknownKeys reads the allowUnknownKeys policy from settings, falling back to
// fallback when the key is missing or not a boolean.
func (o *Organization) AllowUnknownKeys(fallback bool) bool {
	v, ok := o.Settings.Get(SettingAllowUnknownKeys)
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}
