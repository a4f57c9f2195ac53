package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/attribute"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateItem creates an item. Declared attribute defaults fill missing payload keys
// before the payloads are validated against the scope's attribute schema.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	ctx, log := s.operation(ctx, "create_item",
		zap.Stringer("organization_id", req.OrganizationID),
		zap.String("sku", req.SKU),
	)
	if err := s.validateRequest("item", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var item *catalog.Item
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		scope, err := s.findOrganizationScope(ctx, req.OrganizationID, req.TenantID)
		if err != nil {
			return nil, err
		}
		item, err = buildItem(scope, req)
		if err != nil {
			return nil, err
		}

		if err := s.enforcer.Check(ctx, item.UniqueTuple(), item.ID); err != nil {
			return nil, err
		}
		if err := s.checkPlacement(ctx, item); err != nil {
			return nil, err
		}
		schema, err := s.registry.Resolve(ctx, scope)
		if err != nil {
			return nil, err
		}
		if filled := attribute.ApplyDefaults(item, schema); len(filled) > 0 {
			log.Debug("Applied attribute defaults", zap.Strings("attributes", filled))
		}
		if err := s.payloads.Validate(item, schema); err != nil {
			return nil, err
		}

		plan := catalog.NewPlan(item.Ref())
		plan.AddCreate(item.Ref(), item, item.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToItemResponse(item)
	return &resp, nil
}

// UpdateItem applies a partial update to an item. The whole item is revalidated
// against the current attribute schema.
func (s *Service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*ItemResponse, error) {
	ctx, log := s.operation(ctx, "update_item", zap.Stringer("id", req.ID))
	if err := s.validateRequest("item", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var item *catalog.Item
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		item, err = s.repo.FindItem(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := item.Version
		if err := applyItemUpdate(item, req); err != nil {
			return nil, err
		}

		if err := s.enforcer.Check(ctx, item.UniqueTuple(), item.ID); err != nil {
			return nil, err
		}
		if err := s.checkPlacement(ctx, item); err != nil {
			return nil, err
		}
		schema, err := s.registry.Resolve(ctx, item.ScopeKey())
		if err != nil {
			return nil, err
		}
		if err := s.payloads.Validate(item, schema); err != nil {
			return nil, err
		}

		plan := catalog.NewPlan(item.Ref())
		if item.Version != expected {
			plan.AddUpdate(item.Ref(), item, expected, item.UniqueTuple())
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToItemResponse(item)
	return &resp, nil
}

// DeleteItem removes an item row
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deleteEntity(ctx, "delete_item", catalog.EntityItem, id)
}

// GetItem returns one item
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// ListItems returns one page of the items of a scope
func (s *Service) ListItems(ctx context.Context, req ListItemsRequest) (*ItemListResponse, error) {
	if err := s.validateRequest("item", req); err != nil {
		return nil, err
	}
	scope := catalog.NewScopeKey(req.OrganizationID, req.TenantID)

	filter := shared.DefaultFilter()
	filter.Search = req.Search
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
		filter.OrderDir = strings.ToLower(req.OrderDir)
	}
	filters := map[string]any{
		"status":        req.Status,
		"priority":      req.Priority,
		"category_type": req.CategoryType,
	}
	for k, v := range filters {
		if v != "" {
			filter.Filters[k] = v
		}
	}
	if req.StoreID != nil {
		filter.Filters["store_id"] = *req.StoreID
	}
	if req.CategoryID != nil {
		filter.Filters["category_id"] = *req.CategoryID
	}

	page, err := s.repo.ListItems(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	resp := &ItemListResponse{
		Items:      make([]ItemResponse, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for i := range page.Items {
		resp.Items[i] = ToItemResponse(&page.Items[i])
	}
	return resp, nil
}

// checkPlacement loads the item's store and category and verifies they belong to the
// item's scope
func (s *Service) checkPlacement(ctx context.Context, item *catalog.Item) error {
	var (
		store    *catalog.Store
		category *catalog.Category
		err      error
	)
	if item.StoreID != nil {
		if store, err = s.repo.FindStore(ctx, *item.StoreID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}
	if item.CategoryID != nil {
		if category, err = s.repo.FindCategory(ctx, *item.CategoryID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}
	return catalog.CheckItemContainment(item, store, category)
}

// buildItem creates a new item from a request
func buildItem(scope catalog.ScopeKey, req CreateItemRequest) (*catalog.Item, error) {
	item, err := catalog.NewItem(scope.OrganizationID, scope.TenantID, req.SKU, req.Name, req.CategoryType)
	if err != nil {
		return nil, err
	}
	item.Description = req.Description
	item.Place(req.StoreID, req.CategoryID)
	item.SetVariants(req.HasVariants, req.VariantGroups)
	if req.FulfillmentMethod != "" || req.FulfillmentConfig != nil {
		if err := item.SetFulfillment(valueOrEmpty(req.FulfillmentMethod, item.FulfillmentMethod), req.FulfillmentConfig); err != nil {
			return nil, err
		}
	}
	item.SetCompliance(req.ComplianceRequired, req.RegulatoryFlags)
	if req.BasePrice != nil || req.Currency != "" || req.PricingRules != nil {
		price := item.BasePrice
		if req.BasePrice != nil {
			price = *req.BasePrice
		}
		if err := item.SetPricing(price, valueOrEmpty(req.Currency, item.Currency), req.PricingRules); err != nil {
			return nil, err
		}
	}
	if req.Priority != "" {
		if err := item.SetPriority(catalog.ItemPriority(req.Priority)); err != nil {
			return nil, err
		}
	}
	if req.Status != "" {
		if err := item.TransitionTo(catalog.ItemStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		item.SetTags(req.Tags)
	}
	if req.Metadata != nil {
		item.SetMetadata(req.Metadata)
	}
	return item, nil
}

// applyItemUpdate copies the set fields of a request onto an item
func applyItemUpdate(item *catalog.Item, req UpdateItemRequest) error {
	if req.SKU != nil || req.Name != nil || req.CategoryType != nil || req.Description != nil {
		if err := item.Update(
			valueOr(req.SKU, item.SKU),
			valueOr(req.Name, item.Name),
			valueOr(req.CategoryType, item.CategoryType),
			pickString(req.Description, item.Description),
		); err != nil {
			return err
		}
	}
	switch {
	case req.ClearPlacement:
		item.Place(nil, nil)
	case req.StoreID != nil || req.CategoryID != nil:
		storeID, categoryID := item.StoreID, item.CategoryID
		if req.StoreID != nil {
			storeID = req.StoreID
		}
		if req.CategoryID != nil {
			categoryID = req.CategoryID
		}
		item.Place(storeID, categoryID)
	}
	if req.HasVariants != nil || req.VariantGroups != nil {
		groups := item.VariantGroups
		if req.VariantGroups != nil {
			groups = req.VariantGroups
		}
		item.SetVariants(valueOr(req.HasVariants, item.HasVariants), groups)
	}
	if req.FulfillmentMethod != nil || req.FulfillmentConfig != nil {
		config := item.FulfillmentConfig
		if req.FulfillmentConfig != nil {
			config = req.FulfillmentConfig
		}
		if err := item.SetFulfillment(valueOr(req.FulfillmentMethod, item.FulfillmentMethod), config); err != nil {
			return err
		}
	}
	if req.ComplianceRequired != nil || req.RegulatoryFlags != nil {
		flags := item.RegulatoryFlags
		if req.RegulatoryFlags != nil {
			flags = req.RegulatoryFlags
		}
		item.SetCompliance(valueOr(req.ComplianceRequired, item.ComplianceRequired), flags)
	}
	if req.BasePrice != nil || req.Currency != nil || req.PricingRules != nil {
		rules := item.PricingRules
		if req.PricingRules != nil {
			rules = req.PricingRules
		}
		if err := item.SetPricing(valueOr(req.BasePrice, item.BasePrice), valueOr(req.Currency, item.Currency), rules); err != nil {
			return err
		}
	}
	if req.Priority != nil {
		if err := item.SetPriority(catalog.ItemPriority(*req.Priority)); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if err := item.TransitionTo(catalog.ItemStatus(*req.Status)); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		item.SetTags(req.Tags)
	}
	if req.Metadata != nil {
		item.SetMetadata(req.Metadata)
	}
	return nil
}

func valueOrEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
