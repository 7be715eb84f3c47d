package service

import (
	"context"
	"fmt"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
)

// UserService covers superadmin credential management.
type UserService struct {
	repo repository.Repository
}

// NewUserService creates a new UserService
func NewUserService(repo repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// List returns all users ordered by role rank then creation time.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// ChangePassword sets a new password for any account, except that one
// superadmin may never change another superadmin's password.
func (s *UserService) ChangePassword(ctx context.Context, actorID, userID int64, newPassword string) (*models.User, error) {
	if len(newPassword) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("user")
	}

	if user.Role == models.RoleSuperadmin && user.ID != actorID {
		return nil, models.NewConflictError("cannot change another superadmin's password")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("error updating password: %w", err)
	}

	return user, nil
}

// ChangeRole moves an account between the admin and reader tiers. Superadmin
// accounts are immutable through this path.
func (s *UserService) ChangeRole(ctx context.Context, userID int64, newRole string) (*models.User, error) {
	if newRole != models.RoleAdmin && newRole != models.RoleReader {
		return nil, models.NewValidationError("role must be %q or %q", models.RoleAdmin, models.RoleReader)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("user")
	}

	if user.Role == models.RoleSuperadmin {
		return nil, models.NewConflictError("cannot change a superadmin's role")
	}

	if err := s.repo.UpdateUserRole(ctx, user.ID, newRole); err != nil {
		return nil, fmt.Errorf("error updating role: %w", err)
	}

	return user, nil
}
