package attribute

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// definitionStore serves organizations and attribute definitions from memory
type definitionStore struct {
	organizations map[uuid.UUID]*catalog.Organization
	attributes    []*catalog.ItemAttribute
}

func newDefinitionStore(orgs ...*catalog.Organization) *definitionStore {
	s := &definitionStore{organizations: map[uuid.UUID]*catalog.Organization{}}
	for _, o := range orgs {
		s.organizations[o.ID] = o
	}
	return s
}

func (s *definitionStore) FindOrganization(_ context.Context, id uuid.UUID) (*catalog.Organization, error) {
	o, ok := s.organizations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (s *definitionStore) FindAttributes(_ context.Context, scope catalog.ScopeKey) ([]catalog.ItemAttribute, error) {
	var out []catalog.ItemAttribute
	for _, a := range s.attributes {
		if a.OrganizationID == scope.OrganizationID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *definitionStore) FindByScopeKey(_ context.Context, tuple catalog.UniqueTuple) ([]catalog.RowRef, error) {
	var refs []catalog.RowRef
	for _, a := range s.attributes {
		if a.UniqueTuple().Matches(tuple) {
			refs = append(refs, a.Ref())
		}
	}
	return refs, nil
}

func newRegistry(store *definitionStore, opts ...RegistryOption) *Registry {
	return NewRegistry(store, catalog.NewUniquenessEnforcer(store), opts...)
}

func mustOrganization(t *testing.T, tenantID *string) *catalog.Organization {
	t.Helper()
	org, err := catalog.NewOrganization("Acme", "", tenantID)
	require.NoError(t, err)
	return org
}

func mustAttribute(t *testing.T, org *catalog.Organization, name string, attrType catalog.AttributeType, dataType catalog.DataType) *catalog.ItemAttribute {
	t.Helper()
	attr, err := catalog.NewItemAttribute(org.ID, org.TenantID, name, "", attrType, dataType)
	require.NoError(t, err)
	return attr
}

func TestRegistry_Define(t *testing.T) {
	ctx := context.Background()
	org := mustOrganization(t, nil)
	store := newDefinitionStore(org)
	registry := newRegistry(store)

	existing := mustAttribute(t, org, "warranty_months", catalog.AttributeTypePricing, catalog.DataTypeNumber)
	store.attributes = append(store.attributes, existing)

	t.Run("accepts a new definition", func(t *testing.T) {
		attr := mustAttribute(t, org, "color", catalog.AttributeTypeVariant, catalog.DataTypeString)
		assert.NoError(t, registry.Define(ctx, attr))
	})

	t.Run("rejects a duplicate name in the same organization and tenant", func(t *testing.T) {
		attr := mustAttribute(t, org, "warranty_months", catalog.AttributeTypeRegulatory, catalog.DataTypeString)
		assert.ErrorIs(t, registry.Define(ctx, attr), catalog.ErrDuplicateKey)
	})

	t.Run("redefining the same row is not a duplicate", func(t *testing.T) {
		assert.NoError(t, registry.Define(ctx, existing))
	})

	t.Run("same name under another tenant is allowed", func(t *testing.T) {
		attr, err := catalog.NewItemAttribute(org.ID, strPtr("tenant-2"), "warranty_months", "", catalog.AttributeTypePricing, catalog.DataTypeNumber)
		require.NoError(t, err)
		assert.NoError(t, registry.Define(ctx, attr))
	})

	t.Run("rejects unsupported data type", func(t *testing.T) {
		attr := mustAttribute(t, org, "size", catalog.AttributeTypeVariant, catalog.DataTypeString)
		attr.DataType = "uuid"
		err := registry.Define(ctx, attr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})

	t.Run("rejects malformed rules", func(t *testing.T) {
		attr := mustAttribute(t, org, "shipping_class", catalog.AttributeTypeFulfillment, catalog.DataTypeEnum)
		err := registry.Define(ctx, attr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowedValues")
	})

	t.Run("required with a conforming default", func(t *testing.T) {
		attr := mustAttribute(t, org, "max_qty", catalog.AttributeTypePricing, catalog.DataTypeNumber)
		attr.SetRequirement(true, 10, &catalog.ValidationRules{Min: floatPtr(1), Max: floatPtr(99)})
		assert.NoError(t, registry.Define(ctx, attr))
	})

	t.Run("required with a default that violates the rules", func(t *testing.T) {
		attr := mustAttribute(t, org, "max_qty", catalog.AttributeTypePricing, catalog.DataTypeNumber)
		attr.SetRequirement(true, 500, &catalog.ValidationRules{Min: floatPtr(1), Max: floatPtr(99)})
		err := registry.Define(ctx, attr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default is invalid")
	})

	t.Run("default of the wrong type", func(t *testing.T) {
		attr := mustAttribute(t, org, "gift_wrap", catalog.AttributeTypeFulfillment, catalog.DataTypeBoolean)
		attr.SetRequirement(false, "yes", nil)
		assert.Error(t, registry.Define(ctx, attr))
	})
}

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()
	org := mustOrganization(t, nil)
	store := newDefinitionStore(org)

	b := mustAttribute(t, org, "b_attr", catalog.AttributeTypePricing, catalog.DataTypeNumber)
	b.SetSortOrder(1)
	a := mustAttribute(t, org, "a_attr", catalog.AttributeTypePricing, catalog.DataTypeNumber)
	a.SetSortOrder(1)
	first := mustAttribute(t, org, "z_attr", catalog.AttributeTypeVariant, catalog.DataTypeString)
	first.SetSortOrder(0)
	inactive := mustAttribute(t, org, "retired", catalog.AttributeTypeVariant, catalog.DataTypeString)
	inactive.Deactivate()
	tenantOnly, err := catalog.NewItemAttribute(org.ID, strPtr("tenant-2"), "tenant_attr", "", catalog.AttributeTypeVariant, catalog.DataTypeString)
	require.NoError(t, err)
	store.attributes = append(store.attributes, b, a, first, inactive, tenantOnly)

	t.Run("active definitions of the partition ordered by sort order then name", func(t *testing.T) {
		schema, err := newRegistry(store).Resolve(ctx, org.ScopeKey())
		require.NoError(t, err)

		names := make([]string, len(schema.Attributes))
		for i, attr := range schema.Attributes {
			names[i] = attr.Name
		}
		assert.Equal(t, []string{"z_attr", "a_attr", "b_attr"}, names)
		assert.False(t, schema.AllowUnknownKeys)
		assert.Len(t, schema.ForTarget(catalog.AttributeTypePricing), 2)

		_, ok := schema.Lookup("retired")
		assert.False(t, ok)
	})

	t.Run("allowUnknownKeys comes from organization settings", func(t *testing.T) {
		org.SetSettings(catalog.Payload{catalog.SettingAllowUnknownKeys: true})
		defer org.SetSettings(nil)

		schema, err := newRegistry(store).Resolve(ctx, org.ScopeKey())
		require.NoError(t, err)
		assert.True(t, schema.AllowUnknownKeys)
	})

	t.Run("registry default applies when settings omit the flag", func(t *testing.T) {
		schema, err := newRegistry(store, WithDefaultAllowUnknownKeys(true)).Resolve(ctx, org.ScopeKey())
		require.NoError(t, err)
		assert.True(t, schema.AllowUnknownKeys)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := newRegistry(store).Resolve(ctx, catalog.NewScopeKey(uuid.New(), nil))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func strPtr(s string) *string {
	return &s
}
