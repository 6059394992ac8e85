package service

import (
	"context"
	"errors"

	"github.com/critforge/api/internal/database"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/sanitize"
)

// UserRepository defines the interface for user account storage
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.User, error)
	UpdatePassword(ctx context.Context, id string, hash string) error
	Delete(ctx context.Context, id string) error
}

// UserService handles account business logic
type UserService struct {
	userRepo UserRepository
}

// UserServiceConfig holds configuration for the user service
type UserServiceConfig struct {
	UserRepo UserRepository
}

// NewUserService creates a new user service
func NewUserService(cfg UserServiceConfig) *UserService {
	return &UserService{userRepo: cfg.UserRepo}
}

// Get returns the account-owner projection of a user.
func (s *UserService) Get(ctx context.Context, userID string) model.ServiceResult[*model.Profile] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.Profile](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Profile, error) {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}
		profile := user.OwnProfile()
		return &profile, nil
	}, "Failed to get user")
}

// GetPublic returns the projection of a user safe to show other users.
func (s *UserService) GetPublic(ctx context.Context, userID string) model.ServiceResult[*model.PublicUser] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.PublicUser](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.PublicUser, error) {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}
		public := user.Public()
		return &public, nil
	}, "Failed to get user")
}

// Update applies a profile update, including notification preferences.
func (s *UserService) Update(ctx context.Context, userID string, req *model.UpdateUserRequest) model.ServiceResult[*model.Profile] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.Profile](model.CodeInvalidUserID, "Invalid user ID format")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*model.Profile](model.CodeInvalidUserData, "Invalid user data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*model.Profile, error) {
		existing, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}

		updates := make(map[string]interface{})
		if req.Username != nil {
			updates["username"] = sanitize.Text(*req.Username)
		}
		if req.Firstname != nil {
			updates["firstname"] = sanitize.Text(*req.Firstname)
		}
		if req.Lastname != nil {
			updates["lastname"] = sanitize.Text(*req.Lastname)
		}
		if req.Notifications != nil {
			merged := make(map[string]bool, len(existing.Notifications)+len(req.Notifications))
			for k, v := range existing.Notifications {
				merged[k] = v
			}
			for k, v := range req.Notifications {
				merged[k] = v
			}
			updates["notifications"] = merged
		}

		updated := existing
		if len(updates) > 0 {
			updated, err = s.userRepo.Update(ctx, userID, updates)
			if err != nil {
				if errors.Is(err, database.ErrDuplicate) {
					return nil, model.NewServiceError(model.CodeInvalidUserData, "Username is already taken")
				}
				return nil, err
			}
			if updated == nil {
				return nil, model.NewServiceError(model.CodeUserNotFound, "User not found")
			}
		}

		profile := updated.OwnProfile()
		return &profile, nil
	}, "Failed to update user")
}

// Limits returns the entity-count limits of a user's subscription tier.
func (s *UserService) Limits(ctx context.Context, userID string) model.ServiceResult[model.TierLimits] {
	if !model.IsValidID(userID) {
		return model.Failf[model.TierLimits](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (model.TierLimits, error) {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return model.TierLimits{}, err
		}
		if user == nil {
			return model.TierLimits{}, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}
		return user.Tier.Limits(), nil
	}, "Failed to get tier limits")
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, userID string) model.ServiceResult[struct{}] {
	if !model.IsValidID(userID) {
		return model.Failf[struct{}](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (struct{}, error) {
		existing, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return struct{}{}, err
		}
		if existing == nil {
			return struct{}{}, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}
		return struct{}{}, s.userRepo.Delete(ctx, userID)
	}, "Failed to delete user")
}
