package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// Store belongs to exactly one organization and owns categories and items
type Store struct {
	shared.OrganizationAggregateRoot
	Name           string
	DisplayName    *string
	Address        Payload
	Timezone       *string
	IsActive       bool
	StoreType      *string
	OperatingHours Payload
}

// NewStore creates a new active store. The address is required.
func NewStore(organizationID uuid.UUID, tenantID *string, name string, address Payload) (*Store, error) {
	if organizationID == uuid.Nil {
		return nil, invalidField("store organization", "is required")
	}
	if err := validateName("store name", name, 200); err != nil {
		return nil, err
	}
	if address.IsEmpty() {
		return nil, invalidField("store address", "is required")
	}

	return &Store{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(organizationID, tenantID),
		Name:                      strings.TrimSpace(name),
		Address:                   address,
		IsActive:                  true,
	}, nil
}

// Ref returns the row reference of the store
func (s *Store) Ref() RowRef {
	return RowRef{Entity: EntityStore, ID: s.ID}
}

// ScopeKey returns the scope the store lives in
func (s *Store) ScopeKey() ScopeKey {
	return NewScopeKey(s.OrganizationID, s.TenantID)
}

// Update changes the descriptive fields of the store
func (s *Store) Update(name string, displayName *string, address Payload) error {
	if err := validateName("store name", name, 200); err != nil {
		return err
	}
	if address.IsEmpty() {
		return invalidField("store address", "is required")
	}
	s.Name = strings.TrimSpace(name)
	s.DisplayName = optionalString(displayName)
	s.Address = address
	s.IncrementVersion()
	return nil
}

// SetOperations sets the timezone, store type and operating hours
func (s *Store) SetOperations(timezone, storeType *string, hours Payload) error {
	tz := optionalString(timezone)
	if tz != nil {
		if _, err := time.LoadLocation(*tz); err != nil {
			return invalidField("store timezone", "is not a known IANA zone")
		}
	}
	s.Timezone = tz
	s.StoreType = optionalString(storeType)
	s.OperatingHours = hours
	s.IncrementVersion()
	return nil
}

// Activate activates the store
func (s *Store) Activate() error {
	if s.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Store is already active")
	}
	s.IsActive = true
	s.IncrementVersion()
	return nil
}

// Deactivate deactivates the store
func (s *Store) Deactivate() error {
	if !s.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Store is already inactive")
	}
	s.IsActive = false
	s.IncrementVersion()
	return nil
}
