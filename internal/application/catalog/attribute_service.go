package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"go.uber.org/zap"
)

// DefineAttribute creates an attribute definition. Items already stored are not
// revalidated.
func (s *Service) DefineAttribute(ctx context.Context, req DefineAttributeRequest) (*AttributeResponse, error) {
	ctx, log := s.operation(ctx, "define_attribute",
		zap.Stringer("organization_id", req.OrganizationID),
		zap.String("name", req.Name),
	)
	if err := s.validateRequest("attribute", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var attr *catalog.ItemAttribute
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		scope, err := s.findOrganizationScope(ctx, req.OrganizationID, req.TenantID)
		if err != nil {
			return nil, err
		}
		attr, err = catalog.NewItemAttribute(scope.OrganizationID, scope.TenantID, req.Name, req.DisplayName,
			catalog.AttributeType(req.AttributeType), catalog.DataType(req.DataType))
		if err != nil {
			return nil, err
		}
		attr.SetRequirement(req.IsRequired, req.DefaultValue, req.ValidationRules)
		if req.SortOrder != 0 {
			attr.SetSortOrder(req.SortOrder)
		}

		if err := s.registry.Define(ctx, attr); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(attr.Ref())
		plan.AddCreate(attr.Ref(), attr, attr.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToAttributeResponse(attr)
	return &resp, nil
}

// UpdateAttribute applies a partial update to an attribute definition. Deactivating
// a definition removes it from future validation; stored payloads keep their values.
func (s *Service) UpdateAttribute(ctx context.Context, req UpdateAttributeRequest) (*AttributeResponse, error) {
	ctx, log := s.operation(ctx, "update_attribute", zap.Stringer("id", req.ID))
	if err := s.validateRequest("attribute", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var attr *catalog.ItemAttribute
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		var err error
		attr, err = s.repo.FindItemAttribute(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		expected := attr.Version

		if req.DisplayName != nil || req.AttributeType != nil || req.DataType != nil {
			if err := attr.Update(
				valueOr(req.DisplayName, attr.DisplayName),
				catalog.AttributeType(valueOr(req.AttributeType, string(attr.AttributeType))),
				catalog.DataType(valueOr(req.DataType, string(attr.DataType))),
			); err != nil {
				return nil, err
			}
		}
		if req.IsRequired != nil || req.DefaultValue != nil || req.ClearDefault || req.ValidationRules != nil || req.ClearRules {
			defaultValue := attr.DefaultValue
			switch {
			case req.ClearDefault:
				defaultValue = nil
			case req.DefaultValue != nil:
				defaultValue = req.DefaultValue
			}
			rules := attr.ValidationRules
			switch {
			case req.ClearRules:
				rules = nil
			case req.ValidationRules != nil:
				rules = req.ValidationRules
			}
			attr.SetRequirement(valueOr(req.IsRequired, attr.IsRequired), defaultValue, rules)
		}
		if req.SortOrder != nil && *req.SortOrder != attr.SortOrder {
			attr.SetSortOrder(*req.SortOrder)
		}
		if req.IsActive != nil {
			if *req.IsActive {
				attr.Activate()
			} else {
				attr.Deactivate()
			}
		}

		if err := s.registry.Define(ctx, attr); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(attr.Ref())
		if attr.Version != expected {
			plan.AddUpdate(attr.Ref(), attr, expected, attr.UniqueTuple())
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToAttributeResponse(attr)
	return &resp, nil
}

// DeleteAttribute removes an attribute definition. Stored item payloads keep the key.
func (s *Service) DeleteAttribute(ctx context.Context, id uuid.UUID) (*PlanSummary, error) {
	return s.deleteEntity(ctx, "delete_attribute", catalog.EntityItemAttribute, id)
}

// ListAttributes returns the active definitions of a scope in resolution order,
// together with the scope's unknown-key policy
func (s *Service) ListAttributes(ctx context.Context, organizationID uuid.UUID, tenantID *string) ([]AttributeResponse, bool, error) {
	schema, err := s.registry.Resolve(ctx, catalog.NewScopeKey(organizationID, tenantID))
	if err != nil {
		return nil, false, err
	}
	out := make([]AttributeResponse, len(schema.Attributes))
	for i := range schema.Attributes {
		out[i] = ToAttributeResponse(&schema.Attributes[i])
	}
	return out, schema.AllowUnknownKeys, nil
}
