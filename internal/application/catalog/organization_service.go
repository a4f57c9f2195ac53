package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"go.uber.org/zap"
)

// CreateOrganization creates a new organization. The slug must be unique within the
// tenant partition; organizations without a tenant share one partition.
func (s *Service) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error) {
	ctx, log := s.operation(ctx, "create_organization", zap.String("slug", req.Slug))
	if err := s.validateRequest("organization", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var org *catalog.Organization
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		org, err = catalog.NewOrganization(req.Name, req.Slug, req.TenantID)
		if err != nil {
			return nil, err
		}
		org.SetContact(req.Description, req.ContactEmail, req.ContactPhone, req.Website)
		org.SetAddress(req.Address)
		org.SetSettings(req.Settings)
		org.SetVisibility(req.IsPublic)

		if err := s.enforcer.Check(ctx, org.UniqueTuple(), org.ID); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(org.Ref())
		plan.AddCreate(org.Ref(), org, org.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// UpdateOrganization applies a partial update to an organization
func (s *Service) UpdateOrganization(ctx context.Context, req UpdateOrganizationRequest) (*OrganizationResponse, error) {
	ctx, log := s.operation(ctx, "update_organization", zap.Stringer("id", req.ID))
	if err := s.validateRequest("organization", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var org *catalog.Organization
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		org, err = s.repo.FindOrganization(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := org.Version

		if req.Name != nil || req.Slug != nil {
			if err := org.Rename(valueOr(req.Name, org.Name), valueOr(req.Slug, org.Slug)); err != nil {
				return nil, err
			}
		}
		if req.Description != nil || req.ContactEmail != nil || req.ContactPhone != nil || req.Website != nil {
			org.SetContact(
				pickString(req.Description, org.Description),
				pickString(req.ContactEmail, org.ContactEmail),
				pickString(req.ContactPhone, org.ContactPhone),
				pickString(req.Website, org.Website),
			)
		}
		if req.Address != nil {
			org.SetAddress(req.Address)
		}
		if req.Settings != nil {
			org.SetSettings(req.Settings)
		}
		if req.IsPublic != nil {
			org.SetVisibility(*req.IsPublic)
		}

		if err := s.enforcer.Check(ctx, org.UniqueTuple(), org.ID); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(org.Ref())
		if org.Version != expected {
			plan.AddUpdate(org.Ref(), org, expected, org.UniqueTuple())
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// DeleteOrganization deletes an organization with its stores, categories, items and
// attribute definitions. Its users are detached.
func (s *Service) DeleteOrganization(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deleteEntity(ctx, "delete_organization", catalog.EntityOrganization, id)
}

// DeactivateOrganization deactivates an organization together with its stores and
// categories; its items are archived
func (s *Service) DeactivateOrganization(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deactivateEntity(ctx, "deactivate_organization", catalog.EntityOrganization, id)
}

// deleteEntity plans a delete through the lifecycle cascade and commits it
func (s *Service) deleteEntity(ctx context.Context, op string, entity catalog.EntityType, id uuid.UUID) (*PlanSummary, error) {
	ctx, log := s.operation(ctx, op, zap.Stringer("id", id))
	plan, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		return s.cascade.PlanDelete(ctx, entity, id)
	})
	if err != nil {
		return nil, err
	}
	summary := summarize(plan)
	return &summary, nil
}

// deactivateEntity plans a deactivation through the lifecycle cascade and commits it
func (s *Service) deactivateEntity(ctx context.Context, op string, entity catalog.EntityType, id uuid.UUID) (*PlanSummary, error) {
	ctx, log := s.operation(ctx, op, zap.Stringer("id", id))
	plan, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		return s.cascade.PlanDeactivate(ctx, entity, id)
	})
	if err != nil {
		return nil, err
	}
	summary := summarize(plan)
	return &summary, nil
}

// valueOr dereferences p, falling back to def when p is nil
func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// pickString returns the requested value when set, otherwise the current one
func pickString(requested, current *string) *string {
	if requested != nil {
		return requested
	}
	return current
}
