package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// NoTenantPartition is the partition value shared by every row without a tenant.
// It can never collide with a real tenant identifier because tenant IDs are trimmed
// printable strings.
const NoTenantPartition = "\x00no-tenant"

// EntityType identifies one of the catalog entity kinds
type EntityType string

const (
	EntityOrganization  EntityType = "organization"
	EntityStore         EntityType = "store"
	EntityCategory      EntityType = "category"
	EntityItem          EntityType = "item"
	EntityItemAttribute EntityType = "item_attribute"
	EntityUser          EntityType = "user"
)

// String returns the entity type name
func (e EntityType) String() string {
	return string(e)
}

// RowRef points at a single persisted row
type RowRef struct {
	Entity EntityType
	ID     uuid.UUID
}

// String renders the reference as entity/id
func (r RowRef) String() string {
	return string(r.Entity) + "/" + r.ID.String()
}

// ScopeKey is the (organization, tenant) pair bounding a uniqueness partition
type ScopeKey struct {
	OrganizationID uuid.UUID
	TenantID       *string
}

// NewScopeKey creates a ScopeKey with a normalized tenant
func NewScopeKey(organizationID uuid.UUID, tenantID *string) ScopeKey {
	return ScopeKey{
		OrganizationID: organizationID,
		TenantID:       shared.NormalizeTenantID(tenantID),
	}
}

// HasTenant reports whether the key carries a tenant discriminator
func (k ScopeKey) HasTenant() bool {
	return shared.NormalizeTenantID(k.TenantID) != nil
}

// Partition returns the tenant partition of the key. Absent tenants map to
// NoTenantPartition rather than acting as a wildcard.
func (k ScopeKey) Partition() string {
	return TenantPartition(k.TenantID)
}

// Equal reports whether both keys name the same organization and tenant partition
func (k ScopeKey) Equal(other ScopeKey) bool {
	return k.OrganizationID == other.OrganizationID && k.Partition() == other.Partition()
}

// String renders the key for logs and error messages
func (k ScopeKey) String() string {
	return k.OrganizationID.String() + "@" + partitionLabel(k.Partition())
}

// TenantPartition normalizes an optional tenant ID to its partition value
func TenantPartition(tenantID *string) string {
	normalized := shared.NormalizeTenantID(tenantID)
	if normalized == nil {
		return NoTenantPartition
	}
	return *normalized
}

func partitionLabel(partition string) string {
	if partition == NoTenantPartition {
		return "<no-tenant>"
	}
	return partition
}

// Discriminator is one column/value pair of a compound unique key
type Discriminator struct {
	Column string
	Value  string
}

// UniqueTuple is a candidate compound-unique key: discriminator values, the owning
// row that bounds the key (organization or store), and the tenant partition.
type UniqueTuple struct {
	Entity         EntityType
	Discriminators []Discriminator
	// OwnerColumn is the column bounding the key ("organization_id", "store_id"),
	// empty for keys that are global within the tenant partition.
	OwnerColumn string
	OwnerID     uuid.UUID
	// TenantScoped is false for keys that ignore the tenant discriminator entirely.
	TenantScoped bool
	TenantID     *string
}

// Partition returns the normalized tenant partition of the tuple
func (t UniqueTuple) Partition() string {
	if !t.TenantScoped {
		return NoTenantPartition
	}
	return TenantPartition(t.TenantID)
}

// Matches reports whether two tuples collide under normalized-null semantics
func (t UniqueTuple) Matches(other UniqueTuple) bool {
	if t.Entity != other.Entity || t.OwnerColumn != other.OwnerColumn || t.OwnerID != other.OwnerID {
		return false
	}
	if t.Partition() != other.Partition() {
		return false
	}
	if len(t.Discriminators) != len(other.Discriminators) {
		return false
	}
	for i, d := range t.Discriminators {
		o := other.Discriminators[i]
		if d.Column != o.Column || normalizeDiscriminator(d.Value) != normalizeDiscriminator(o.Value) {
			return false
		}
	}
	return true
}

// Key renders a canonical representation of the tuple
func (t UniqueTuple) Key() string {
	var b strings.Builder
	b.WriteString(string(t.Entity))
	b.WriteString("(")
	for i, d := range t.Discriminators {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Column)
		b.WriteString("=")
		b.WriteString(normalizeDiscriminator(d.Value))
	}
	if t.OwnerColumn != "" {
		b.WriteString(", ")
		b.WriteString(t.OwnerColumn)
		b.WriteString("=")
		b.WriteString(t.OwnerID.String())
	}
	if t.TenantScoped {
		b.WriteString(", tenant_id=")
		b.WriteString(partitionLabel(t.Partition()))
	}
	b.WriteString(")")
	return b.String()
}

func normalizeDiscriminator(v string) string {
	return strings.TrimSpace(v)
}

// OrganizationSlugTuple is the unique key of an organization. The organization is its
// own scope owner, so the slug is unique per tenant partition.
func OrganizationSlugTuple(slug string, tenantID *string) UniqueTuple {
	return UniqueTuple{
		Entity:         EntityOrganization,
		Discriminators: []Discriminator{{Column: "slug", Value: slug}},
		TenantScoped:   true,
		TenantID:       tenantID,
	}
}

// CategorySlugTuple is the unique key of a category within its store
func CategorySlugTuple(slug string, storeID uuid.UUID, tenantID *string) UniqueTuple {
	return UniqueTuple{
		Entity:         EntityCategory,
		Discriminators: []Discriminator{{Column: "slug", Value: slug}},
		OwnerColumn:    "store_id",
		OwnerID:        storeID,
		TenantScoped:   true,
		TenantID:       tenantID,
	}
}

// ItemSKUTuple is the unique key of an item within its organization
func ItemSKUTuple(sku string, organizationID uuid.UUID, tenantID *string) UniqueTuple {
	return UniqueTuple{
		Entity:         EntityItem,
		Discriminators: []Discriminator{{Column: "sku", Value: sku}},
		OwnerColumn:    "organization_id",
		OwnerID:        organizationID,
		TenantScoped:   true,
		TenantID:       tenantID,
	}
}

// ItemAttributeNameTuple is the unique key of an attribute definition within its organization
func ItemAttributeNameTuple(name string, organizationID uuid.UUID, tenantID *string) UniqueTuple {
	return UniqueTuple{
		Entity:         EntityItemAttribute,
		Discriminators: []Discriminator{{Column: "name", Value: name}},
		OwnerColumn:    "organization_id",
		OwnerID:        organizationID,
		TenantScoped:   true,
		TenantID:       tenantID,
	}
}

// UserEmailTuple is the globally unique key of a user
func UserEmailTuple(email string) UniqueTuple {
	return UniqueTuple{
		Entity:         EntityUser,
		Discriminators: []Discriminator{{Column: "email", Value: strings.ToLower(email)}},
	}
}
