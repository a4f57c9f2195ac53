package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyTable(t *testing.T) {
	table := DefaultPolicyTable()

	tests := []struct {
		parent, child EntityType
		action        CascadeAction
		column        string
	}{
		{EntityOrganization, EntityStore, ActionCascade, ""},
		{EntityOrganization, EntityCategory, ActionCascade, ""},
		{EntityOrganization, EntityItem, ActionCascade, ""},
		{EntityOrganization, EntityItemAttribute, ActionCascade, ""},
		{EntityOrganization, EntityUser, ActionDetach, "organization_id"},
		{EntityStore, EntityCategory, ActionCascade, ""},
		{EntityStore, EntityItem, ActionCascade, ""},
		{EntityCategory, EntityCategory, ActionDetach, "parent_id"},
		{EntityCategory, EntityItem, ActionDetach, "category_id"},
	}

	for _, tt := range tests {
		t.Run(string(tt.parent)+"->"+string(tt.child), func(t *testing.T) {
			policy, ok := table.Lookup(tt.parent, tt.child)
			require.True(t, ok)
			assert.Equal(t, tt.action, policy.Action)
			assert.Equal(t, tt.column, policy.Column)
		})
	}

	t.Run("unknown relationships are absent", func(t *testing.T) {
		_, ok := table.Lookup(EntityItemAttribute, EntityItem)
		assert.False(t, ok)
		_, ok = table.Lookup(EntityStore, EntityUser)
		assert.False(t, ok)
	})
}

func TestLifecycleCascade_DeleteOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	parent := f.addCategory("Electronics", nil)
	child := f.addCategory("Phones", parent)
	item := f.addItem("SKU-1", child)
	attr, err := NewItemAttribute(f.org.ID, nil, "warranty_months", "", AttributeTypePricing, DataTypeNumber)
	require.NoError(t, err)
	f.store.attributes[attr.ID] = attr
	member, err := NewUser("ana@example.com", nil, &f.org.ID)
	require.NoError(t, err)
	f.store.users[member.ID] = member

	// unrelated organization must survive
	other := newFixture(nil)
	otherCategory := other.addCategory("Toys", nil)
	for id, o := range other.store.organizations {
		f.store.organizations[id] = o
	}
	for id, s := range other.store.stores {
		f.store.stores[id] = s
	}
	f.store.categories[otherCategory.ID] = otherCategory

	plan, err := NewLifecycleCascade(f.store).PlanDelete(ctx, EntityOrganization, f.org.ID)
	require.NoError(t, err)

	assert.Equal(t, f.org.Ref(), plan.Root)
	assert.Len(t, plan.DeletesOf(EntityStore), 1)
	assert.Len(t, plan.DeletesOf(EntityCategory), 2)
	assert.Len(t, plan.DeletesOf(EntityItem), 1)
	assert.Len(t, plan.DeletesOf(EntityItemAttribute), 1)
	assert.Empty(t, plan.DeletesOf(EntityUser))
	assert.Equal(t, f.org.Ref(), plan.Deletes[len(plan.Deletes)-1], "the root is deleted last")

	require.Len(t, plan.Nullifications, 1, "category and item detaches are dropped because their rows are deleted")
	assert.Equal(t, Nullification{Target: member.Ref(), Column: "organization_id"}, plan.Nullifications[0])

	for i := 1; i < len(plan.Deletes); i++ {
		assert.LessOrEqual(t, deleteRank[plan.Deletes[i-1].Entity], deleteRank[plan.Deletes[i].Entity])
	}

	f.store.apply(plan)
	assert.NotContains(t, f.store.organizations, f.org.ID)
	assert.NotContains(t, f.store.stores, f.shop.ID)
	assert.NotContains(t, f.store.items, item.ID)
	assert.NotContains(t, f.store.attributes, attr.ID)
	assert.NotContains(t, f.store.categories, parent.ID)
	assert.NotContains(t, f.store.categories, child.ID)
	require.Contains(t, f.store.users, member.ID)
	assert.Nil(t, f.store.users[member.ID].OrganizationID)
	assert.Contains(t, f.store.categories, otherCategory.ID)
	assert.Contains(t, f.store.organizations, other.org.ID)
}

func TestLifecycleCascade_DeleteCategoryDetachesChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	parent := f.addCategory("Electronics", nil)
	c1 := f.addCategory("Phones", parent)
	c2 := f.addCategory("Laptops", parent)
	grandchild := f.addCategory("Cases", c1)
	item := f.addItem("SKU-1", parent)

	plan, err := NewLifecycleCascade(f.store).PlanDelete(ctx, EntityCategory, parent.ID)
	require.NoError(t, err)

	assert.Equal(t, []RowRef{parent.Ref()}, plan.Deletes)
	assert.ElementsMatch(t, []Nullification{
		{Target: c1.Ref(), Column: "parent_id"},
		{Target: c2.Ref(), Column: "parent_id"},
		{Target: item.Ref(), Column: "category_id"},
	}, plan.Nullifications)

	f.store.apply(plan)
	require.Contains(t, f.store.categories, c1.ID)
	require.Contains(t, f.store.categories, c2.ID)
	assert.Nil(t, f.store.categories[c1.ID].ParentID)
	assert.Nil(t, f.store.categories[c2.ID].ParentID)
	assert.Equal(t, c1.ID, *f.store.categories[grandchild.ID].ParentID)
	require.Contains(t, f.store.items, item.ID)
	assert.Nil(t, f.store.items[item.ID].CategoryID)
}

func TestLifecycleCascade_DeleteStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	parent := f.addCategory("Electronics", nil)
	child := f.addCategory("Phones", parent)
	item := f.addItem("SKU-1", child)

	plan, err := NewLifecycleCascade(f.store).PlanDelete(ctx, EntityStore, f.shop.ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []RowRef{item.Ref()}, plan.DeletesOf(EntityItem))
	assert.ElementsMatch(t, []RowRef{parent.Ref(), child.Ref()}, plan.DeletesOf(EntityCategory))
	assert.Empty(t, plan.Nullifications, "deleted rows are never detached")
	assert.Equal(t, f.shop.Ref(), plan.Deletes[len(plan.Deletes)-1])
}

func TestLifecycleCascade_DeleteItemAttributeIsIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	attr, err := NewItemAttribute(f.org.ID, nil, "color", "", AttributeTypeVariant, DataTypeString)
	require.NoError(t, err)
	f.store.attributes[attr.ID] = attr
	item := f.addItem("SKU-1", nil)
	item.SetVariants(true, Payload{"color": "red"})

	plan, err := NewLifecycleCascade(f.store).PlanDelete(ctx, EntityItemAttribute, attr.ID)
	require.NoError(t, err)
	assert.Equal(t, []RowRef{attr.Ref()}, plan.Deletes)
	assert.Empty(t, plan.Nullifications)
	assert.Empty(t, plan.Upserts)
}

func TestLifecycleCascade_Blocked(t *testing.T) {
	ctx := context.Background()

	t.Run("reject policy refuses the whole plan", func(t *testing.T) {
		f := newFixture(nil)
		f.addItem("SKU-1", nil)
		table := DefaultPolicyTable()
		table[Relationship{Parent: EntityStore, Child: EntityItem}] = Policy{Action: ActionReject}

		plan, err := NewLifecycleCascade(f.store, WithPolicyTable(table)).PlanDelete(ctx, EntityStore, f.shop.ID)
		assert.Nil(t, plan)
		assert.True(t, IsCascadeBlocked(err))
	})

	t.Run("relationship missing from the table", func(t *testing.T) {
		f := newFixture(nil)
		f.addCategory("Electronics", nil)
		table := DefaultPolicyTable()
		delete(table, Relationship{Parent: EntityStore, Child: EntityCategory})

		plan, err := NewLifecycleCascade(f.store, WithPolicyTable(table)).PlanDelete(ctx, EntityStore, f.shop.ID)
		assert.Nil(t, plan)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCascadeBlocked)
		assert.Contains(t, err.Error(), "no delete policy")
	})

	t.Run("ignore leaves the dependent alone", func(t *testing.T) {
		f := newFixture(nil)
		item := f.addItem("SKU-1", nil)
		table := DefaultPolicyTable()
		table[Relationship{Parent: EntityStore, Child: EntityItem}] = Policy{Action: ActionIgnore}

		plan, err := NewLifecycleCascade(f.store, WithPolicyTable(table)).PlanDelete(ctx, EntityStore, f.shop.ID)
		require.NoError(t, err)
		assert.NotContains(t, plan.Deletes, item.Ref())
	})
}

func TestLifecycleCascade_NotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := NewLifecycleCascade(f.store).PlanDelete(context.Background(), EntityStore, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store not found")
}

func TestLifecycleCascade_PlanDeactivate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	parent := f.addCategory("Electronics", nil)
	child := f.addCategory("Phones", parent)
	item := f.addItem("SKU-1", child)
	member, err := NewUser("ana@example.com", nil, &f.org.ID)
	require.NoError(t, err)
	f.store.users[member.ID] = member

	t.Run("organization takes stores, categories and items with it", func(t *testing.T) {
		plan, err := NewLifecycleCascade(f.store).PlanDeactivate(ctx, EntityOrganization, f.org.ID)
		require.NoError(t, err)

		var targets []RowRef
		for _, d := range plan.Deactivations {
			targets = append(targets, d.Target)
		}
		assert.ElementsMatch(t, []RowRef{f.org.Ref(), f.shop.Ref(), parent.Ref(), child.Ref(), item.Ref()}, targets)
		assert.Empty(t, plan.Nullifications)
		assert.Empty(t, plan.Deletes)
	})

	t.Run("category deactivation does not cascade", func(t *testing.T) {
		plan, err := NewLifecycleCascade(f.store).PlanDeactivate(ctx, EntityCategory, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []Deactivation{{Target: parent.Ref()}}, plan.Deactivations)
	})
}
