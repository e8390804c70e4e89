package user

import (
	"context"
	"errors"

	"github.com/frahmantamala/employee-directory/internal"
)

type Service struct {
	repo  RepositoryAPI
	roles RoleResolver
}

func NewService(repo RepositoryAPI, roles RoleResolver) *Service {
	return &Service{
		repo:  repo,
		roles: roles,
	}
}

// GetProfile loads the user and its governing role. A user without a role
// still gets a profile.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	row, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	role, err := s.roles.ResolveRole(ctx, userID)
	if err != nil && !errors.Is(err, internal.ErrNoRoleAssigned) {
		return nil, err
	}

	return FromRow(row, role), nil
}
