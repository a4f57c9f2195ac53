package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryHierarchy_AttachChild(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches under a parent in the same store", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		parent := f.addCategory("Electronics", nil)
		child := f.addCategory("Phones", nil)

		require.NoError(t, h.AttachChild(ctx, child, &parent.ID))
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	})

	t.Run("nil parent makes the category a root", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		parent := f.addCategory("Electronics", nil)
		child := f.addCategory("Phones", parent)

		require.NoError(t, h.AttachChild(ctx, child, nil))
		assert.True(t, child.IsRoot())
	})

	t.Run("rejects self as parent", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		c := f.addCategory("Electronics", nil)

		err := h.AttachChild(ctx, c, &c.ID)
		assert.ErrorIs(t, err, ErrCyclicHierarchy)
	})

	t.Run("rejects parenting under a descendant", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		root := f.addCategory("Electronics", nil)
		mid := f.addCategory("Phones", root)
		leaf := f.addCategory("Cases", mid)

		err := h.AttachChild(ctx, root, &leaf.ID)
		assert.ErrorIs(t, err, ErrCyclicHierarchy)
		assert.True(t, root.IsRoot(), "failed attach must not move the category")
	})

	t.Run("rejects a parent from another store", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		other, err := NewStore(f.org.ID, nil, "Outlet", Payload{"city": "Shelbyville"})
		require.NoError(t, err)
		f.store.stores[other.ID] = other
		foreign, err := NewCategory(f.org.ID, other.ID, nil, "Outlet Deals", "")
		require.NoError(t, err)
		f.store.categories[foreign.ID] = foreign
		child := f.addCategory("Phones", nil)

		err = h.AttachChild(ctx, child, &foreign.ID)
		assert.ErrorIs(t, err, ErrCrossScopeReference)
	})

	t.Run("rejects a parent from another tenant partition", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		foreign, err := NewCategory(f.org.ID, f.shop.ID, strPtr("tenant-2"), "Tenant Deals", "")
		require.NoError(t, err)
		f.store.categories[foreign.ID] = foreign
		child := f.addCategory("Phones", nil)

		err = h.AttachChild(ctx, child, &foreign.ID)
		assert.ErrorIs(t, err, ErrCrossScopeReference)
	})

	t.Run("missing parent", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		child := f.addCategory("Phones", nil)
		missing := uuid.New()

		err := h.AttachChild(ctx, child, &missing)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Contains(t, err.Error(), "Parent category not found")
	})

	t.Run("deep acyclic chain is accepted", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store)
		parent := f.addCategory("Level 0", nil)
		for i := 1; i < 12; i++ {
			parent = f.addCategory(fmt.Sprintf("Level %d", i), parent)
		}
		child := f.addCategory("Leaf", nil)

		require.NoError(t, h.AttachChild(ctx, child, &parent.ID))
		assert.Equal(t, parent.ID, *child.ParentID)
	})

	t.Run("depth cap rejects with a distinct code", func(t *testing.T) {
		f := newFixture(nil)
		h := NewCategoryHierarchy(f.store, WithMaxDepth(2))
		a := f.addCategory("A", nil)
		b := f.addCategory("B", a)
		c := f.addCategory("C", b)
		d := f.addCategory("D", c)
		child := f.addCategory("E", nil)

		err := h.AttachChild(ctx, child, &d.ID)
		assert.ErrorIs(t, err, ErrHierarchyTooDeep)
		assert.NotErrorIs(t, err, ErrCyclicHierarchy)
		assert.True(t, child.IsRoot())

		require.NoError(t, h.AttachChild(ctx, child, &a.ID), "one ancestor is within the cap")
	})

	t.Run("stored loop past the category count is a cycle", func(t *testing.T) {
		f := newFixture(nil)
		a := f.addCategory("A", nil)
		b := f.addCategory("B", a)
		child := f.addCategory("C", nil)
		h := NewCategoryHierarchy(loopingReader{memoryStore: f.store, loop: []Category{*a, *b}})

		err := h.AttachChild(ctx, child, &b.ID)
		assert.ErrorIs(t, err, ErrCyclicHierarchy)
		assert.Contains(t, err.Error(), "exceeds")
	})
}

// loopingReader reports an ancestor chain that repeats forever, as a corrupted
// store with an A -> B -> A parent loop would.
type loopingReader struct {
	*memoryStore
	loop []Category
}

func (r loopingReader) FindAncestors(_ context.Context, _ uuid.UUID) ([]Category, error) {
	out := make([]Category, 0, 64)
	for len(out) < 64 {
		out = append(out, r.loop...)
	}
	return out, nil
}

func TestCategoryHierarchy_ReorderSiblings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	h := NewCategoryHierarchy(f.store)
	a := f.addCategory("A", nil)
	b := f.addCategory("B", nil)
	c := f.addCategory("C", nil)
	f.addCategory("Nested", a)

	t.Run("assigns contiguous sort orders", func(t *testing.T) {
		changed, err := h.ReorderSiblings(ctx, f.shop.ID, nil, []uuid.UUID{c.ID, a.ID, b.ID})
		require.NoError(t, err)

		orders := map[uuid.UUID]int{}
		for _, cat := range changed {
			orders[cat.ID] = cat.SortOrder
		}
		assert.Equal(t, 0, orders[c.ID])
		assert.Equal(t, 1, orders[a.ID])
		assert.Equal(t, 2, orders[b.ID])
	})

	t.Run("unchanged positions are not returned", func(t *testing.T) {
		changed, err := h.ReorderSiblings(ctx, f.shop.ID, nil, []uuid.UUID{a.ID, b.ID, c.ID})
		require.NoError(t, err)
		require.Len(t, changed, 2)
		for _, cat := range changed {
			assert.NotEqual(t, a.ID, cat.ID)
		}
	})

	t.Run("missing sibling", func(t *testing.T) {
		_, err := h.ReorderSiblings(ctx, f.shop.ID, nil, []uuid.UUID{a.ID, b.ID})
		assert.ErrorIs(t, err, ErrInvalidSiblingOrder)
	})

	t.Run("foreign id", func(t *testing.T) {
		_, err := h.ReorderSiblings(ctx, f.shop.ID, nil, []uuid.UUID{a.ID, b.ID, uuid.New()})
		assert.ErrorIs(t, err, ErrInvalidSiblingOrder)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := h.ReorderSiblings(ctx, f.shop.ID, nil, []uuid.UUID{a.ID, b.ID, b.ID})
		assert.ErrorIs(t, err, ErrInvalidSiblingOrder)
	})
}

func TestCategoryHierarchy_DetachSubtree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	h := NewCategoryHierarchy(f.store)
	parent := f.addCategory("Electronics", nil)
	c1 := f.addCategory("Phones", parent)
	c2 := f.addCategory("Laptops", parent)
	f.addCategory("Cases", c1)

	nulls, err := h.DetachSubtree(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, nulls, 2)

	targets := []uuid.UUID{nulls[0].Target.ID, nulls[1].Target.ID}
	assert.ElementsMatch(t, []uuid.UUID{c1.ID, c2.ID}, targets)
	for _, n := range nulls {
		assert.Equal(t, "parent_id", n.Column)
		assert.Equal(t, EntityCategory, n.Target.Entity)
	}
}

func TestTree_AttachRejectsCycles(t *testing.T) {
	orgID, storeID := uuid.New(), uuid.New()
	var categories []Category
	for i := 0; i < 12; i++ {
		c, err := NewCategory(orgID, storeID, nil, "Category "+string(rune('A'+i)), "")
		require.NoError(t, err)
		categories = append(categories, *c)
	}
	tree := NewTree(categories)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 2000; step++ {
		child := categories[rng.Intn(len(categories))].ID
		var parent *uuid.UUID
		if rng.Intn(5) > 0 {
			p := categories[rng.Intn(len(categories))].ID
			parent = &p
		}

		err := tree.Attach(child, parent)
		if err != nil {
			require.ErrorIs(t, err, ErrCyclicHierarchy)
			require.NotNil(t, parent)
			assert.True(t, *parent == child || contains(tree.Ancestors(*parent), child),
				"cycle rejection must be justified by the current tree")
		}

		for _, c := range categories {
			ancestors := tree.Ancestors(c.ID)
			require.LessOrEqual(t, len(ancestors), tree.Len()-1)
			require.NotContains(t, ancestors, c.ID, "category %s became its own ancestor", c.ID)
		}
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func TestTree_DetachPromotesChildren(t *testing.T) {
	f := newFixture(nil)
	parent := f.addCategory("Electronics", nil)
	c1 := f.addCategory("Phones", parent)
	c2 := f.addCategory("Laptops", parent)
	grandchild := f.addCategory("Cases", c1)

	var all []Category
	for _, c := range f.store.categories {
		all = append(all, *c)
	}
	tree := NewTree(all)

	promoted := tree.Detach(parent.ID)
	assert.ElementsMatch(t, []uuid.UUID{c1.ID, c2.ID}, promoted)

	_, ok := tree.Get(parent.ID)
	assert.False(t, ok)
	got, ok := tree.Get(grandchild.ID)
	require.True(t, ok)
	assert.Equal(t, c1.ID, *got.ParentID)
	assert.Len(t, tree.Roots(), 2)
}

func TestTree_ReorderAndRoots(t *testing.T) {
	f := newFixture(nil)
	a := f.addCategory("A", nil)
	b := f.addCategory("B", nil)
	child := f.addCategory("Child", a)

	var all []Category
	for _, c := range f.store.categories {
		all = append(all, *c)
	}
	tree := NewTree(all)
	require.NoError(t, tree.Reorder(nil, []uuid.UUID{b.ID, a.ID}))

	roots := tree.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, b.ID, roots[0].Category.ID)
	assert.Equal(t, a.ID, roots[1].Category.ID)
	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, child.ID, roots[1].Children[0].Category.ID)

	assert.ErrorIs(t, tree.Reorder(nil, []uuid.UUID{a.ID}), ErrInvalidSiblingOrder)
}

func TestTree_Add(t *testing.T) {
	orgID, storeID := uuid.New(), uuid.New()
	tree := NewTree(nil)
	root, err := NewCategory(orgID, storeID, nil, "Root", "")
	require.NoError(t, err)
	require.NoError(t, tree.Add(root))

	child, err := NewCategory(orgID, storeID, nil, "Child", "")
	require.NoError(t, err)
	child.ParentID = &root.ID
	require.NoError(t, tree.Add(child))
	assert.Equal(t, []uuid.UUID{root.ID}, tree.Ancestors(child.ID))

	orphan, err := NewCategory(orgID, storeID, nil, "Orphan", "")
	require.NoError(t, err)
	missing := uuid.New()
	orphan.ParentID = &missing
	assert.Error(t, tree.Add(orphan))
	assert.Equal(t, 2, tree.Len())
}
