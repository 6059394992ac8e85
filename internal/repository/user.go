package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/critforge/api/internal/database"
	"github.com/critforge/api/internal/model"
)

const userTable = "user"

// UserRepository handles user account data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new account. Email and username carry unique indexes;
// violations surface as database.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	role := u.Role
	if role == "" {
		role = model.UserRoleUser
	}
	tier := u.Tier
	if tier == "" {
		tier = model.TierFree
	}

	fields := []string{
		"email: string::lowercase($email)",
		"username: $username",
		"role: $role",
		"subscription_tier: $tier",
		"email_verified: $email_verified",
		"hash: $hash",
		"created_on: time::now()",
		"updated_on: time::now()",
	}
	vars := map[string]interface{}{
		"id":             recordID(userTable, u.ID),
		"email":          u.Email,
		"username":       u.Username,
		"role":           string(role),
		"tier":           string(tier),
		"email_verified": u.EmailVerified,
		"hash":           "",
	}
	if u.Hash != nil {
		vars["hash"] = *u.Hash
	}

	if u.Firstname != nil {
		fields = append(fields, "firstname: $firstname")
		vars["firstname"] = *u.Firstname
	}
	if u.Lastname != nil {
		fields = append(fields, "lastname: $lastname")
		vars["lastname"] = *u.Lastname
	}
	if len(u.Notifications) > 0 {
		fields = append(fields, "notifications: $notifications")
		vars["notifications"] = u.Notifications
	}

	query := fmt.Sprintf("CREATE type::record($id) CONTENT { %s }", strings.Join(fields, ", "))

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.Role = role
	u.Tier = tier
	return nil
}

// GetByID retrieves a user by bare id. Returns nil when the record does not
// exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": recordID(userTable, id)})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return parseUser(result)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = string::lowercase($email)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"email": email})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return parseUser(result)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT * FROM user WHERE username = $username`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"username": username})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return parseUser(result)
}

// Update applies a field map to a user.
func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.User, error) {
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	setClause := ""
	vars := map[string]interface{}{"id": recordID(userTable, id)}
	i := 0
	for key, value := range updates {
		if i > 0 {
			setClause += ", "
		}
		varName := fmt.Sprintf("v%d", i)
		setClause += fmt.Sprintf("%s = $%s", key, varName)
		vars[varName] = value
		i++
	}

	query := fmt.Sprintf(`
		UPDATE type::record($id) SET %s, updated_on = time::now()
		RETURN AFTER
	`, setClause)

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		if errors.Is(err, database.ErrDuplicate) {
			return nil, database.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return parseUser(result)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	query := `UPDATE type::record($id) SET hash = $hash, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   recordID(userTable, id),
		"hash": hash,
	}
	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete removes a user account
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	if err := r.db.Execute(ctx, query, map[string]interface{}{"id": recordID(userTable, id)}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Parsing helpers

func parseUser(result interface{}) (*model.User, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	u := &model.User{
		ID:            entityID(data["id"]),
		Email:         getString(data, "email"),
		Username:      getString(data, "username"),
		Firstname:     getStringPtr(data, "firstname"),
		Lastname:      getStringPtr(data, "lastname"),
		Role:          model.UserRole(getString(data, "role")),
		Tier:          model.SubscriptionTier(getString(data, "subscription_tier")),
		EmailVerified: getBool(data, "email_verified"),
		Notifications: getBoolMap(data, "notifications"),
		Hash:          getStringPtr(data, "hash"),
	}
	if t := getTime(data, "created_on"); t != nil {
		u.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		u.UpdatedOn = *t
	}

	return u, nil
}
