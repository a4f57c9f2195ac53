package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"go.uber.org/zap"
)

// CreateCategory creates a category in a store, optionally under a parent. Without an
// explicit sort order the category is appended after its siblings.
func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	ctx, log := s.operation(ctx, "create_category", zap.Stringer("store_id", req.StoreID))
	if err := s.validateRequest("category", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var category *catalog.Category
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		store, err := s.repo.FindStore(ctx, req.StoreID)
		if err != nil {
			return nil, err
		}
		category, err = catalog.NewCategory(store.OrganizationID, store.ID, store.TenantID, req.Name, req.Slug)
		if err != nil {
			return nil, err
		}
		if req.Description != nil || req.ImageURL != nil {
			if err := category.Update(category.Name, category.Slug, req.Description, req.ImageURL); err != nil {
				return nil, err
			}
		}
		if req.IsPublished {
			category.Publish()
		}

		if err := s.enforcer.Check(ctx, category.UniqueTuple(), category.ID); err != nil {
			return nil, err
		}
		if err := s.hierarchy.AttachChild(ctx, category, req.ParentID); err != nil {
			return nil, err
		}
		if err := catalog.CheckCategoryContainment(category, store); err != nil {
			return nil, err
		}
		if err := s.placeAtEnd(ctx, category, req.SortOrder); err != nil {
			return nil, err
		}

		plan := catalog.NewPlan(category.Ref())
		plan.AddCreate(category.Ref(), category, category.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// UpdateCategory applies a partial update to a category. Toggling the active or
// published flag never moves the category.
func (s *Service) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*CategoryResponse, error) {
	ctx, log := s.operation(ctx, "update_category", zap.Stringer("id", req.ID))
	if err := s.validateRequest("category", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var category *catalog.Category
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		category, err = s.repo.FindCategory(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := category.Version

		if req.Name != nil || req.Slug != nil || req.Description != nil || req.ImageURL != nil {
			if err := category.Update(
				valueOr(req.Name, category.Name),
				valueOr(req.Slug, category.Slug),
				pickString(req.Description, category.Description),
				pickString(req.ImageURL, category.ImageURL),
			); err != nil {
				return nil, err
			}
		}
		if req.IsActive != nil {
			if *req.IsActive {
				category.Activate()
			} else {
				category.Deactivate()
			}
		}
		if req.IsPublished != nil {
			if *req.IsPublished {
				category.Publish()
			} else {
				category.Unpublish()
			}
		}

		if err := s.enforcer.Check(ctx, category.UniqueTuple(), category.ID); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(category.Ref())
		if category.Version != expected {
			plan.AddUpdate(category.Ref(), category, expected, category.UniqueTuple())
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// MoveCategory re-parents a category within its store. A moved category is appended
// after its new siblings.
func (s *Service) MoveCategory(ctx context.Context, req MoveCategoryRequest) (*CategoryResponse, error) {
	ctx, log := s.operation(ctx, "move_category", zap.Stringer("id", req.ID))
	if err := s.validateRequest("category", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var category *catalog.Category
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		category, err = s.repo.FindCategory(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := category.Version
		before := category.ParentID

		if err := s.hierarchy.AttachChild(ctx, category, req.ParentID); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(category.Ref())
		if sameParent(before, category.ParentID) {
			return plan, nil
		}
		if err := s.placeAtEnd(ctx, category, nil); err != nil {
			return nil, err
		}
		plan.AddUpdate(category.Ref(), category, expected, category.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// ReorderCategories assigns sort orders 0..n-1 to the siblings under one parent
func (s *Service) ReorderCategories(ctx context.Context, req ReorderCategoriesRequest) ([]CategoryResponse, error) {
	ctx, log := s.operation(ctx, "reorder_categories", zap.Stringer("store_id", req.StoreID), zap.Int("count", len(req.OrderedIDs)))
	if err := s.validateRequest("category", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		if _, err := s.repo.FindStore(ctx, req.StoreID); err != nil {
			return nil, err
		}
		changed, err := s.hierarchy.ReorderSiblings(ctx, req.StoreID, req.ParentID, req.OrderedIDs)
		if err != nil {
			return nil, err
		}
		root := catalog.RowRef{Entity: catalog.EntityStore, ID: req.StoreID}
		if req.ParentID != nil {
			root = catalog.RowRef{Entity: catalog.EntityCategory, ID: *req.ParentID}
		}
		plan := catalog.NewPlan(root)
		for _, c := range changed {
			// SetSortOrder bumped the version once
			plan.AddUpdate(c.Ref(), c, c.Version-1)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	siblings, err := s.repo.FindSiblings(ctx, req.StoreID, req.ParentID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(siblings))
	for i := range siblings {
		out[i] = ToCategoryResponse(&siblings[i])
	}
	return out, nil
}

// DeleteCategory deletes a category. Its direct children become roots and its items
// lose their category; nothing else is removed.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deleteEntity(ctx, "delete_category", catalog.EntityCategory, id)
}

// GetCategoryTree returns the category forest of a store, ordered by sort order
func (s *Service) GetCategoryTree(ctx context.Context, storeID uuid.UUID) ([]CategoryTreeNode, error) {
	if _, err := s.repo.FindStore(ctx, storeID); err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return toCategoryTree(catalog.NewTree(categories).Roots()), nil
}

// placeAtEnd sets an explicit sort order, or appends the category after the current
// siblings under its parent
func (s *Service) placeAtEnd(ctx context.Context, category *catalog.Category, explicit *int) error {
	if explicit != nil {
		if category.SortOrder != *explicit {
			category.SetSortOrder(*explicit)
		}
		return nil
	}
	siblings, err := s.repo.FindSiblings(ctx, category.StoreID, category.ParentID)
	if err != nil {
		return err
	}
	next := 0
	for _, sib := range siblings {
		if sib.ID != category.ID && sib.SortOrder >= next {
			next = sib.SortOrder + 1
		}
	}
	if category.SortOrder != next {
		category.SetSortOrder(next)
	}
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
