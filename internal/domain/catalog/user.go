package catalog

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// User is a person who may belong to one organization. Email is globally unique.
type User struct {
	shared.BaseAggregateRoot
	Email          string
	Name           *string
	OrganizationID *uuid.UUID
}

// NewUser creates a new user
func NewUser(email string, name *string, organizationID *uuid.UUID) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalidField("user email", "cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidField("user email", "is not a valid address")
	}
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              optionalString(name),
		OrganizationID:    organizationID,
	}, nil
}

// Ref returns the row reference of the user
func (u *User) Ref() RowRef {
	return RowRef{Entity: EntityUser, ID: u.ID}
}

// UniqueTuple returns the user's globally unique key
func (u *User) UniqueTuple() UniqueTuple {
	return UserEmailTuple(u.Email)
}

// JoinOrganization attaches the user to an organization
func (u *User) JoinOrganization(organizationID uuid.UUID) {
	u.OrganizationID = &organizationID
	u.IncrementVersion()
}

// LeaveOrganization detaches the user from its organization
func (u *User) LeaveOrganization() {
	u.OrganizationID = nil
	u.IncrementVersion()
}
