package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/mototrade-erp/mototrade/internal/auth"
	"github.com/mototrade-erp/mototrade/internal/rbac"
)

// RoleDirectory resolves and assigns roles.
type RoleDirectory interface {
	GetRoleByName(ctx context.Context, name string) (rbac.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
}

// Service manages staff accounts.
type Service struct {
	repo  Repository
	roles RoleDirectory
}

// NewService constructs the users service.
func NewService(repo Repository, roles RoleDirectory) *Service {
	return &Service{repo: repo, roles: roles}
}

// List returns all accounts with their role names.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("users: invalid id %d", id)
	}
	return s.repo.Get(ctx, id)
}

// Create registers an account and grants its initial role.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (User, error) {
	role, err := s.roles.GetRoleByName(ctx, input.Role)
	if err != nil {
		return User{}, fmt.Errorf("users: unknown role %q: %w", input.Role, err)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, input.Email, strings.TrimSpace(input.Name), hash)
	if err != nil {
		return User{}, err
	}
	if err := s.roles.AssignRole(ctx, user.ID, role.ID); err != nil {
		return User{}, err
	}
	user.Roles = []string{role.Name}
	return user, nil
}

// Update applies partial account changes.
func (s *Service) Update(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("users: invalid id %d", id)
	}
	var hash *string
	if input.Password != nil {
		h, err := auth.HashPassword(*input.Password)
		if err != nil {
			return User{}, err
		}
		hash = &h
	}
	if err := s.repo.Update(ctx, id, input.Name, hash, input.IsActive); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// SetRole replaces a user's role assignment.
func (s *Service) SetRole(ctx context.Context, userID int64, roleName string) error {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	target, err := s.roles.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("users: unknown role %q: %w", roleName, err)
	}
	for _, existing := range user.Roles {
		if existing == target.Name {
			continue
		}
		old, err := s.roles.GetRoleByName(ctx, existing)
		if err != nil {
			continue
		}
		if err := s.roles.RevokeRole(ctx, userID, old.ID); err != nil {
			return err
		}
	}
	return s.roles.AssignRole(ctx, userID, target.ID)
}
