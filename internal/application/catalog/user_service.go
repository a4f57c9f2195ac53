package catalog

import (
	"context"

	"github.com/storefront/catalog/internal/domain/catalog"
	"go.uber.org/zap"
)

// CreateUser creates a user. Emails are unique across all organizations.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	ctx, log := s.operation(ctx, "create_user")
	if err := s.validateRequest("user", req); err != nil {
		log.Warn("Invalid request", zap.Error(err))
		return nil, err
	}

	var user *catalog.User
	_, err := s.commit(ctx, log, func(ctx context.Context) (*catalog.Plan, error) {
		if req.OrganizationID != nil {
			if _, err := s.repo.FindOrganization(ctx, *req.OrganizationID); err != nil {
				return nil, err
			}
		}
		var err error
		user, err = catalog.NewUser(req.Email, req.Name, req.OrganizationID)
		if err != nil {
			return nil, err
		}
		if err := s.enforcer.Check(ctx, user.UniqueTuple(), user.ID); err != nil {
			return nil, err
		}
		plan := catalog.NewPlan(user.Ref())
		plan.AddCreate(user.Ref(), user, user.UniqueTuple())
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}
