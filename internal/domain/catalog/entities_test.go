package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Electronics":          "electronics",
		"Home & Garden":        "home-garden",
		"  Crème Brûlée  ":     "creme-brulee",
		"Kids' Toys -- 2024":   "kids-toys-2024",
		"---":                  "",
		"Ärger über Straßen":   "arger-uber-stra-en",
		"already-a-valid-slug": "already-a-valid-slug",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Slugify(in))
		})
	}
}

func TestNewOrganization(t *testing.T) {
	t.Run("derives slug from name", func(t *testing.T) {
		org, err := NewOrganization("Acme Retail", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "acme-retail", org.Slug)
		assert.True(t, org.IsActive)
		assert.Equal(t, 1, org.Version)
		assert.NotEqual(t, uuid.Nil, org.ID)
	})

	t.Run("lower-cases an explicit slug", func(t *testing.T) {
		org, err := NewOrganization("Acme", "ACME-EU", strPtr("eu"))
		require.NoError(t, err)
		assert.Equal(t, "acme-eu", org.Slug)
		assert.Equal(t, "eu", *org.TenantID)
	})

	t.Run("rejects an invalid slug", func(t *testing.T) {
		_, err := NewOrganization("Acme", "acme retail", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewOrganization("  ", "", nil)
		assert.Error(t, err)
	})

	t.Run("activation state changes", func(t *testing.T) {
		org, err := NewOrganization("Acme", "", nil)
		require.NoError(t, err)
		assert.Error(t, org.Activate())
		require.NoError(t, org.Deactivate())
		assert.False(t, org.IsActive)
		assert.Equal(t, 2, org.Version)
		assert.Error(t, org.Deactivate())
	})
}

func TestOrganization_AllowUnknownKeys(t *testing.T) {
	org, err := NewOrganization("Acme", "", nil)
	require.NoError(t, err)

	assert.False(t, org.AllowUnknownKeys(false))
	assert.True(t, org.AllowUnknownKeys(true))

	org.SetSettings(Payload{SettingAllowUnknownKeys: true, "theme": "dark"})
	assert.True(t, org.AllowUnknownKeys(false))
	assert.Equal(t, "dark", org.Settings["theme"])

	org.SetSettings(Payload{SettingAllowUnknownKeys: "yes"})
	assert.False(t, org.AllowUnknownKeys(false))
}

func TestNewStore(t *testing.T) {
	orgID := uuid.New()

	t.Run("requires an address", func(t *testing.T) {
		_, err := NewStore(orgID, nil, "Main", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address is required")
	})

	t.Run("requires an organization", func(t *testing.T) {
		_, err := NewStore(uuid.Nil, nil, "Main", Payload{"city": "x"})
		assert.Error(t, err)
	})

	t.Run("validates timezone", func(t *testing.T) {
		store, err := NewStore(orgID, nil, "Main", Payload{"city": "x"})
		require.NoError(t, err)
		assert.Error(t, store.SetOperations(strPtr("Mars/Olympus"), nil, nil))
		require.NoError(t, store.SetOperations(strPtr("Europe/Berlin"), strPtr("retail"), Payload{"mon": "9-17"}))
		assert.Equal(t, "Europe/Berlin", *store.Timezone)
	})
}

func TestCategory_TogglesKeepPosition(t *testing.T) {
	parentID := uuid.New()
	c, err := NewCategory(uuid.New(), uuid.New(), nil, "Phones", "")
	require.NoError(t, err)
	c.SetParent(&parentID)
	c.SetSortOrder(3)

	c.Deactivate()
	c.Publish()
	c.Unpublish()
	c.Activate()

	require.NotNil(t, c.ParentID)
	assert.Equal(t, parentID, *c.ParentID)
	assert.Equal(t, 3, c.SortOrder)
	assert.True(t, c.IsActive)
	assert.False(t, c.IsPublished)
}

func TestItem_TransitionTo(t *testing.T) {
	tests := []struct {
		from, to ItemStatus
		ok       bool
	}{
		{ItemStatusDraft, ItemStatusActive, true},
		{ItemStatusDraft, ItemStatusArchived, true},
		{ItemStatusActive, ItemStatusArchived, true},
		{ItemStatusArchived, ItemStatusActive, true},
		{ItemStatusActive, ItemStatusDeleted, true},
		{ItemStatusActive, ItemStatusDraft, false},
		{ItemStatusDeleted, ItemStatusActive, false},
		{ItemStatusDeleted, ItemStatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			item, err := NewItem(uuid.New(), nil, "SKU-1", "Widget", "GENERAL")
			require.NoError(t, err)
			item.Status = tt.from

			err = item.TransitionTo(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, item.Status)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidState)
				assert.Equal(t, tt.from, item.Status)
			}
		})
	}
}

func TestItem_Setters(t *testing.T) {
	item, err := NewItem(uuid.New(), nil, " SKU-1 ", "Widget", "GENERAL")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", item.SKU)
	assert.Equal(t, ItemStatusDraft, item.Status)
	assert.Equal(t, "USD", item.Currency)

	assert.Error(t, item.SetPricing(decimal.NewFromInt(-1), "USD", nil))
	require.NoError(t, item.SetPricing(decimal.RequireFromString("19.99"), " eur ", nil))
	assert.Equal(t, "EUR", item.Currency)
	assert.NotNil(t, item.PricingRules)

	item.SetTags([]string{"sale", " sale ", "", "new"})
	assert.Equal(t, []string{"sale", "new"}, item.Tags)

	assert.Error(t, item.SetPriority("CRITICAL"))
	require.NoError(t, item.SetPriority(ItemPriorityUrgent))
	assert.Equal(t, ItemPriorityUrgent, item.Priority)
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Ana@Example.COM ", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = NewUser("not-an-email", nil, nil)
	assert.Error(t, err)

	orgID := uuid.New()
	u.JoinOrganization(orgID)
	assert.Equal(t, orgID, *u.OrganizationID)
	u.LeaveOrganization()
	assert.Nil(t, u.OrganizationID)
}

func TestContainment(t *testing.T) {
	f := newFixture(nil)
	category := f.addCategory("Electronics", nil)

	t.Run("category in its own organization's store", func(t *testing.T) {
		assert.NoError(t, CheckCategoryContainment(category, f.shop))
	})

	t.Run("category pointing at a store of another organization", func(t *testing.T) {
		foreign := newFixture(nil)
		c, err := NewCategory(f.org.ID, foreign.shop.ID, nil, "Deals", "")
		require.NoError(t, err)
		assert.ErrorIs(t, CheckCategoryContainment(c, foreign.shop), ErrCrossScopeReference)
	})

	t.Run("item with store and category of its organization", func(t *testing.T) {
		item := f.addItem("SKU-1", category)
		assert.NoError(t, CheckItemContainment(item, f.shop, category))
	})

	t.Run("item without placement", func(t *testing.T) {
		item, err := NewItem(f.org.ID, nil, "SKU-2", "Loose", "GENERAL")
		require.NoError(t, err)
		assert.NoError(t, CheckItemContainment(item, nil, nil))
	})

	t.Run("item pointing at a foreign category", func(t *testing.T) {
		foreign := newFixture(nil)
		foreignCategory := foreign.addCategory("Toys", nil)
		item, err := NewItem(f.org.ID, nil, "SKU-3", "Widget", "GENERAL")
		require.NoError(t, err)
		item.Place(nil, &foreignCategory.ID)
		assert.ErrorIs(t, CheckItemContainment(item, nil, foreignCategory), ErrCrossScopeReference)
	})

	t.Run("item pointing at a store in another tenant partition", func(t *testing.T) {
		tenantStore, err := NewStore(f.org.ID, strPtr("t-9"), "Tenant Store", Payload{"city": "x"})
		require.NoError(t, err)
		item, err := NewItem(f.org.ID, nil, "SKU-4", "Widget", "GENERAL")
		require.NoError(t, err)
		item.Place(&tenantStore.ID, nil)
		assert.ErrorIs(t, CheckItemContainment(item, tenantStore, nil), ErrCrossScopeReference)
	})

	t.Run("item category in a different store of the organization", func(t *testing.T) {
		otherShop, err := NewStore(f.org.ID, nil, "Outlet", Payload{"city": "y"})
		require.NoError(t, err)
		item, err := NewItem(f.org.ID, nil, "SKU-6", "Widget", "GENERAL")
		require.NoError(t, err)
		item.Place(&otherShop.ID, &category.ID)
		assert.ErrorIs(t, CheckItemContainment(item, otherShop, category), ErrCrossScopeReference)
	})

	t.Run("item store missing", func(t *testing.T) {
		item, err := NewItem(f.org.ID, nil, "SKU-5", "Widget", "GENERAL")
		require.NoError(t, err)
		missing := uuid.New()
		item.Place(&missing, nil)
		assert.ErrorIs(t, CheckItemContainment(item, nil, nil), shared.ErrNotFound)
	})
}

func TestPayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"warranty_months": 24, "name": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("24"), p["warranty_months"])

	p, err = ParsePayload([]byte(" null "))
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = ParsePayload([]byte(`[1,2]`))
	assert.Error(t, err)

	raw, err := MarshalPayload(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	clone := Payload{"a": 1}.Clone()
	clone["b"] = 2
	assert.Len(t, clone, 2)
}
