package catalog

import (
	"sort"

	"github.com/google/uuid"
)

// TreeNode is one category with its ordered children
type TreeNode struct {
	Category *Category
	Children []*TreeNode
}

// Tree is an in-memory arena of one store's categories keyed by ID, with parent
// pointers. It applies the same rules as CategoryHierarchy without a reader.
type Tree struct {
	nodes map[uuid.UUID]*Category
}

// NewTree builds a tree from a flat category list
func NewTree(categories []Category) *Tree {
	t := &Tree{nodes: make(map[uuid.UUID]*Category, len(categories))}
	for i := range categories {
		c := categories[i]
		t.nodes[c.ID] = &c
	}
	return t
}

// Len returns the number of categories in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get returns a category by ID
func (t *Tree) Get(id uuid.UUID) (*Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Add inserts a category, rejecting a parent link that would close a cycle
func (t *Tree) Add(c *Category) error {
	parentID := c.ParentID
	t.nodes[c.ID] = c
	if parentID == nil {
		return nil
	}
	c.ParentID = nil
	if err := t.Attach(c.ID, parentID); err != nil {
		delete(t.nodes, c.ID)
		return err
	}
	return nil
}

// Ancestors returns the ancestor chain of id, nearest first. The walk is bounded by
// the tree size so a corrupted cycle cannot loop forever.
func (t *Tree) Ancestors(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	current, ok := t.nodes[id]
	for ok && current.ParentID != nil && len(out) <= len(t.nodes) {
		out = append(out, *current.ParentID)
		current, ok = t.nodes[*current.ParentID]
	}
	return out
}

// Attach re-parents id under parentID (nil = root)
func (t *Tree) Attach(id uuid.UUID, parentID *uuid.UUID) error {
	child, ok := t.nodes[id]
	if !ok {
		return invalidField("category", "is not in the tree")
	}
	if parentID == nil {
		child.ParentID = nil
		return nil
	}
	parent, ok := t.nodes[*parentID]
	if !ok {
		return invalidField("parent category", "is not in the tree")
	}
	if err := checkParentScope(child, parent); err != nil {
		return err
	}
	if err := checkChain(child.ID, parent.ID, t.Ancestors(parent.ID), len(t.nodes)+1); err != nil {
		return err
	}
	pid := parent.ID
	child.ParentID = &pid
	return nil
}

// Siblings returns the categories sharing parentID, ordered by sort order then name
func (t *Tree) Siblings(parentID *uuid.UUID) []Category {
	var out []Category
	for _, c := range t.nodes {
		if sameParent(c.ParentID, parentID) {
			out = append(out, *c)
		}
	}
	sortCategories(out)
	return out
}

// Reorder assigns contiguous sort orders to the siblings under parentID
func (t *Tree) Reorder(parentID *uuid.UUID, orderedIDs []uuid.UUID) error {
	changed, err := reorder(t.Siblings(parentID), orderedIDs)
	if err != nil {
		return err
	}
	for _, c := range changed {
		t.nodes[c.ID].SortOrder = c.SortOrder
	}
	return nil
}

// Detach removes id and promotes its direct children to roots
func (t *Tree) Detach(id uuid.UUID) []uuid.UUID {
	var promoted []uuid.UUID
	for _, c := range t.nodes {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
			promoted = append(promoted, c.ID)
		}
	}
	delete(t.nodes, id)
	return promoted
}

// Roots returns the forest as nested nodes, each level ordered by sort order then name
func (t *Tree) Roots() []*TreeNode {
	children := make(map[uuid.UUID][]*Category, len(t.nodes))
	var roots []*Category
	for _, c := range t.nodes {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if _, ok := t.nodes[*c.ParentID]; !ok {
			// parent outside this tree; show as root rather than dropping it
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}
	return t.buildLevel(roots, children)
}

func (t *Tree) buildLevel(level []*Category, children map[uuid.UUID][]*Category) []*TreeNode {
	sort.SliceStable(level, func(i, j int) bool {
		return lessCategory(level[i], level[j])
	})
	out := make([]*TreeNode, 0, len(level))
	for _, c := range level {
		out = append(out, &TreeNode{
			Category: c,
			Children: t.buildLevel(children[c.ID], children),
		})
	}
	return out
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func lessCategory(a, b *Category) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

func sortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return lessCategory(&categories[i], &categories[j])
	})
}
