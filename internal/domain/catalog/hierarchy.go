package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// CategoryHierarchy keeps each store's category forest acyclic and ordered.
// The acyclicity check and the write it guards must run in the same transaction;
// the writer re-validates parent links on commit.
type CategoryHierarchy struct {
	reader HierarchyReader
	// maxDepth caps the ancestor count of an attached category; 0 means no cap
	maxDepth int
}

// HierarchyOption configures a CategoryHierarchy
type HierarchyOption func(*CategoryHierarchy)

// WithMaxDepth rejects attachments that would give a category more than n
// ancestors with HIERARCHY_TOO_DEEP. Cycle detection is unaffected.
func WithMaxDepth(n int) HierarchyOption {
	return func(h *CategoryHierarchy) {
		h.maxDepth = n
	}
}

// NewCategoryHierarchy creates a new CategoryHierarchy
func NewCategoryHierarchy(reader HierarchyReader, opts ...HierarchyOption) *CategoryHierarchy {
	h := &CategoryHierarchy{reader: reader}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AttachChild places child under parentID, or makes it a root when parentID is nil.
// It fails with CYCLIC_HIERARCHY if child is parentID or one of its ancestors, with
// CROSS_SCOPE_REFERENCE if the parent lives in another store or organization, and
// with NOT_FOUND if the parent does not exist.
func (h *CategoryHierarchy) AttachChild(ctx context.Context, child *Category, parentID *uuid.UUID) error {
	if parentID == nil {
		if child.ParentID != nil {
			child.SetParent(nil)
		}
		return nil
	}
	if *parentID == child.ID {
		return shared.NewDomainError(CodeCyclicHierarchy, "A category cannot be its own parent")
	}

	parent, err := h.reader.FindCategory(ctx, *parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.ErrNotFound.Code, "Parent category not found")
		}
		return err
	}
	if err := checkParentScope(child, parent); err != nil {
		return err
	}

	ancestors, err := h.reader.FindAncestors(ctx, parent.ID)
	if err != nil {
		return err
	}
	limit, err := h.walkLimit(ctx, child.StoreID)
	if err != nil {
		return err
	}
	if err := checkChain(child.ID, parent.ID, ancestorIDs(ancestors), limit); err != nil {
		return err
	}
	if h.maxDepth > 0 && len(ancestors)+1 > h.maxDepth {
		return shared.NewDomainError(CodeHierarchyTooDeep,
			fmt.Sprintf("Category %s would have %d ancestors, the limit is %d", child.ID, len(ancestors)+1, h.maxDepth))
	}

	if child.ParentID == nil || *child.ParentID != parent.ID {
		pid := parent.ID
		child.SetParent(&pid)
	}
	return nil
}

// ReorderSiblings assigns contiguous sort orders 0..n-1 to the siblings under
// parentID in the given order. orderedIDs must list exactly the sibling set. The
// categories whose sort order changed are returned for persisting.
func (h *CategoryHierarchy) ReorderSiblings(ctx context.Context, storeID uuid.UUID, parentID *uuid.UUID, orderedIDs []uuid.UUID) ([]*Category, error) {
	siblings, err := h.reader.FindSiblings(ctx, storeID, parentID)
	if err != nil {
		return nil, err
	}
	return reorder(siblings, orderedIDs)
}

// DetachSubtree returns the nullifications that turn the direct children of a
// deleted category into roots. Grandchildren keep their parents.
func (h *CategoryHierarchy) DetachSubtree(ctx context.Context, categoryID uuid.UUID) ([]Nullification, error) {
	category, err := h.reader.FindCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	children, err := h.reader.FindSiblings(ctx, category.StoreID, &category.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Nullification, 0, len(children))
	for _, child := range children {
		out = append(out, Nullification{Target: child.Ref(), Column: "parent_id"})
	}
	return out, nil
}

// walkLimit bounds the ancestor walk by the store's category count. An acyclic
// chain never exceeds it.
func (h *CategoryHierarchy) walkLimit(ctx context.Context, storeID uuid.UUID) (int, error) {
	count, err := h.reader.CountCategories(ctx, storeID)
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

func checkParentScope(child, parent *Category) error {
	if parent.StoreID != child.StoreID {
		return crossScope("parent %s is in store %s, child %s is in store %s", parent.ID, parent.StoreID, child.ID, child.StoreID)
	}
	if !parent.ScopeKey().Equal(child.ScopeKey()) {
		return crossScope("parent %s belongs to %s, child %s belongs to %s", parent.ID, parent.ScopeKey(), child.ID, child.ScopeKey())
	}
	return nil
}

// checkChain walks from the proposed parent upward. ancestors is the parent's chain,
// nearest first. A chain longer than limit can only come from a stored cycle.
func checkChain(childID, parentID uuid.UUID, ancestors []uuid.UUID, limit int) error {
	if parentID == childID {
		return shared.NewDomainError(CodeCyclicHierarchy, "A category cannot be its own parent")
	}
	for i, id := range ancestors {
		if limit > 0 && i >= limit {
			return shared.NewDomainError(CodeCyclicHierarchy,
				fmt.Sprintf("Ancestor chain of %s exceeds %d entries", parentID, limit))
		}
		if id == childID {
			return shared.NewDomainError(CodeCyclicHierarchy,
				fmt.Sprintf("Category %s is an ancestor of %s", childID, parentID))
		}
	}
	return nil
}

func ancestorIDs(categories []Category) []uuid.UUID {
	ids := make([]uuid.UUID, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	return ids
}

func reorder(siblings []Category, orderedIDs []uuid.UUID) ([]*Category, error) {
	if len(siblings) != len(orderedIDs) {
		return nil, shared.NewDomainError(CodeInvalidSiblingOrder,
			fmt.Sprintf("Expected %d sibling IDs, got %d", len(siblings), len(orderedIDs)))
	}
	byID := make(map[uuid.UUID]*Category, len(siblings))
	for i := range siblings {
		byID[siblings[i].ID] = &siblings[i]
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	changed := make([]*Category, 0, len(orderedIDs))
	for pos, id := range orderedIDs {
		category, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError(CodeInvalidSiblingOrder,
				fmt.Sprintf("Category %s is not a sibling in this position", id))
		}
		if _, dup := seen[id]; dup {
			return nil, shared.NewDomainError(CodeInvalidSiblingOrder,
				fmt.Sprintf("Category %s is listed twice", id))
		}
		seen[id] = struct{}{}
		if category.SortOrder != pos {
			category.SetSortOrder(pos)
			changed = append(changed, category)
		}
	}
	return changed, nil
}
