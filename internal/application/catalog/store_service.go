package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"go.uber.org/zap"
)

// CreateStore creates a store inside an organization's scope
func (s *Service) CreateStore(ctx context.Context, req CreateStoreRequest) (*StoreResponse, error) {
	ctx, log := s.operation(ctx, "create_store", zap.Stringer("organization_id", req.OrganizationID))
	if err := s.validateRequest("store", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var store *catalog.Store
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		scope, err := s.findOrganizationScope(ctx, req.OrganizationID, req.TenantID)
		if err != nil {
			return nil, err
		}
		store, err = catalog.NewStore(scope.OrganizationID, scope.TenantID, req.Name, req.Address)
		if err != nil {
			return nil, err
		}
		store.DisplayName = req.DisplayName
		if req.Timezone != nil || req.StoreType != nil || req.OperatingHours != nil {
			if err := store.SetOperations(req.Timezone, req.StoreType, req.OperatingHours); err != nil {
				return nil, err
			}
		}
		if err := catalog.CheckStoreContainment(scope, store); err != nil {
			return nil, err
		}

		plan := catalog.NewPlan(store.Ref())
		plan.AddCreate(store.Ref(), store)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Store created", scopeField(store.ScopeKey()))
	resp := ToStoreResponse(store)
	return &resp, nil
}

// UpdateStore applies a partial update to a store. The organization and tenant of a
// store never change.
func (s *Service) UpdateStore(ctx context.Context, req UpdateStoreRequest) (*StoreResponse, error) {
	ctx, log := s.operation(ctx, "update_store", zap.Stringer("id", req.ID))
	if err := s.validateRequest("store", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var store *catalog.Store
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		store, err = s.repo.FindStore(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := store.Version

		if req.Name != nil || req.DisplayName != nil || req.Address != nil {
			address := store.Address
			if req.Address != nil {
				address = req.Address
			}
			if err := store.Update(valueOr(req.Name, store.Name), pickString(req.DisplayName, store.DisplayName), address); err != nil {
				return nil, err
			}
		}
		if req.Timezone != nil || req.StoreType != nil || req.OperatingHours != nil {
			hours := store.OperatingHours
			if req.OperatingHours != nil {
				hours = req.OperatingHours
			}
			if err := store.SetOperations(pickString(req.Timezone, store.Timezone), pickString(req.StoreType, store.StoreType), hours); err != nil {
				return nil, err
			}
		}

		plan := catalog.NewPlan(store.Ref())
		if store.Version != expected {
			plan.AddUpdate(store.Ref(), store, expected)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToStoreResponse(store)
	return &resp, nil
}

// DeleteStore deletes a store with its categories and items
func (s *Service) DeleteStore(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deleteEntity(ctx, "delete_store", catalog.EntityStore, id)
}

// DeactivateStore deactivates a store and its categories and archives its items.
// Nothing is detached.
func (s *Service) DeactivateStore(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deactivateEntity(ctx, "deactivate_store", catalog.EntityStore, id)
}
