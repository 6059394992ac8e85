package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/sanitize"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 8
	maxPasswordLength = 128
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// AuthService handles registration, login, and password management
type AuthService struct {
	userRepo       UserRepository
	tokens         TokenIssuer
	allowedOrigins []string
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo UserRepository
	Tokens   TokenIssuer
	// AllowedOrigins are the absolute origins ValidateRedirect accepts in
	// addition to relative paths.
	AllowedOrigins []string
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:       cfg.UserRepo,
		tokens:         cfg.Tokens,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// RegisterRequest represents a new account registration.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
}

// Validate checks the registration request and reports every violation.
func (r *RegisterRequest) Validate() []model.FieldError {
	var errors []model.FieldError

	if r.Email == "" {
		errors = append(errors, model.FieldError{Field: "email", Message: "email is required"})
	} else if !isValidEmail(r.Email) {
		errors = append(errors, model.FieldError{Field: "email", Message: "email is not valid"})
	}
	if len(r.Username) < model.MinUsernameLength {
		errors = append(errors, model.FieldError{Field: "username", Message: fmt.Sprintf("username must be at least %d characters", model.MinUsernameLength)})
	} else if len(r.Username) > model.MaxUsernameLength {
		errors = append(errors, model.FieldError{Field: "username", Message: fmt.Sprintf("username must be %d characters or less", model.MaxUsernameLength)})
	}
	errors = append(errors, validatePassword(r.Password)...)

	return errors
}

// AuthResponse carries a signed token and the authenticated user's profile.
type AuthResponse struct {
	Token string        `json:"token"`
	User  model.Profile `json:"user"`
}

// Register creates a new account on the free tier and signs it in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) model.ServiceResult[*AuthResponse] {
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*AuthResponse](model.CodeInvalidUserData, "Invalid user data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*AuthResponse, error) {
		if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, model.NewServiceError(model.CodeInvalidUserData, "Email is already registered")
		}
		if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, model.NewServiceError(model.CodeInvalidUserData, "Username is already taken")
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}

		user := &model.User{
			ID:        model.NewID(),
			Email:     strings.ToLower(req.Email),
			Username:  sanitize.Text(req.Username),
			Firstname: sanitize.TextPtr(req.Firstname),
			Lastname:  sanitize.TextPtr(req.Lastname),
			Role:      model.UserRoleUser,
			Tier:      model.TierFree,
			Hash:      &hash,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}

		return s.respond(user)
	}, "Failed to register user")
}

// Login authenticates by email and password. Failures are reported with one
// generic message so the response never reveals which part was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) model.ServiceResult[*AuthResponse] {
	return Execute(ctx, func(ctx context.Context) (*AuthResponse, error) {
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil || user.Hash == nil || !checkPassword(*user.Hash, password) {
			return nil, model.NewServiceError(model.CodeUnauthorizedAccess, "Invalid email or password")
		}

		return s.respond(user)
	}, "Failed to log in")
}

// ChangePassword verifies the current password and installs a new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) model.ServiceResult[struct{}] {
	if !model.IsValidID(userID) {
		return model.Failf[struct{}](model.CodeInvalidUserID, "Invalid user ID format")
	}
	if errs := validatePassword(next); len(errs) > 0 {
		return model.Failf[struct{}](model.CodeInvalidUserData, "Invalid user data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (struct{}, error) {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return struct{}{}, err
		}
		if user == nil {
			return struct{}{}, model.NewServiceError(model.CodeUserNotFound, "User not found")
		}
		if user.Hash == nil || !checkPassword(*user.Hash, current) {
			return struct{}{}, model.NewServiceError(model.CodeUnauthorizedAccess, "Current password is incorrect")
		}

		hash, err := hashPassword(next)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.userRepo.UpdatePassword(ctx, userID, hash)
	}, "Failed to change password")
}

// ValidateRedirect reports whether a post-login redirect target is safe:
// either a relative path or an absolute URL on a configured origin.
func (s *AuthService) ValidateRedirect(redirect string) bool {
	if redirect == "" {
		return false
	}
	if strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//") {
		return true
	}
	for _, origin := range s.allowedOrigins {
		if origin != "" && strings.HasPrefix(redirect, origin) {
			return true
		}
	}
	return false
}

func (s *AuthService) respond(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user.OwnProfile()}, nil
}

// Password helpers

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validatePassword(password string) []model.FieldError {
	var errors []model.FieldError
	if len(password) < minPasswordLength {
		errors = append(errors, model.FieldError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)})
	}
	if len(password) > maxPasswordLength {
		errors = append(errors, model.FieldError{Field: "password", Message: fmt.Sprintf("password must be %d characters or less", maxPasswordLength)})
	}
	return errors
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
