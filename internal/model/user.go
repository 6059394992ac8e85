package model

import (
	"fmt"
	"time"
)

// UserRole represents a user's permission level
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// SubscriptionTier determines entity-count limits, enforced at creation time.
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierSeasoned SubscriptionTier = "seasoned"
	TierExpert   SubscriptionTier = "expert"
	TierMaster   SubscriptionTier = "master"
	TierGuild    SubscriptionTier = "guild"
)

// TierLimits bounds how many entities a user may create.
type TierLimits struct {
	MaxCharacters int
	MaxEncounters int
	MaxParties    int
}

var tierLimits = map[SubscriptionTier]TierLimits{
	TierFree:     {MaxCharacters: 10, MaxEncounters: 5, MaxParties: 2},
	TierSeasoned: {MaxCharacters: 50, MaxEncounters: 25, MaxParties: 10},
	TierExpert:   {MaxCharacters: 200, MaxEncounters: 100, MaxParties: 25},
	TierMaster:   {MaxCharacters: 1000, MaxEncounters: 500, MaxParties: 100},
	TierGuild:    {MaxCharacters: 5000, MaxEncounters: 2500, MaxParties: 500},
}

// Limits returns the entity-count limits for the tier. Unknown tiers get the
// free limits.
func (t SubscriptionTier) Limits() TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// IsValid reports whether the tier is a known tier.
func (t SubscriptionTier) IsValid() bool {
	_, ok := tierLimits[t]
	return ok
}

// User represents a registered account.
type User struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Username      string           `json:"username"`
	Firstname     *string          `json:"firstname,omitempty"`
	Lastname      *string          `json:"lastname,omitempty"`
	Role          UserRole         `json:"role"`
	Tier          SubscriptionTier `json:"subscription_tier"`
	EmailVerified bool             `json:"email_verified"`
	Notifications map[string]bool  `json:"notifications,omitempty"`
	Hash          *string          `json:"-"`
	CreatedOn     time.Time        `json:"created_on"`
	UpdatedOn     time.Time        `json:"updated_on"`
}

// PublicUser is the projection of a User safe to return to other users. Fields
// are copied explicitly; nothing secret can leak through a spread.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
	}
}

// Profile is the projection a user sees of their own account. Like PublicUser
// it enumerates exactly what is copied; the password hash never appears.
type Profile struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Username      string           `json:"username"`
	Firstname     *string          `json:"firstname,omitempty"`
	Lastname      *string          `json:"lastname,omitempty"`
	Tier          SubscriptionTier `json:"subscription_tier"`
	EmailVerified bool             `json:"email_verified"`
	Notifications map[string]bool  `json:"notifications,omitempty"`
	CreatedOn     time.Time        `json:"created_on"`
}

// OwnProfile returns the account-owner projection of the user.
func (u *User) OwnProfile() Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Firstname:     u.Firstname,
		Lastname:      u.Lastname,
		Tier:          u.Tier,
		EmailVerified: u.EmailVerified,
		Notifications: u.Notifications,
		CreatedOn:     u.CreatedOn,
	}
}

// Constraints
const (
	MaxUsernameLength = 32
	MinUsernameLength = 3
	MaxNameLength     = 50
)

// ValidNotificationKeys lists the notification preferences a user may toggle.
var ValidNotificationKeys = []string{"email_updates", "encounter_shared", "product_news"}

// UpdateUserRequest represents a profile update.
type UpdateUserRequest struct {
	Username      *string         `json:"username,omitempty"`
	Firstname     *string         `json:"firstname,omitempty"`
	Lastname      *string         `json:"lastname,omitempty"`
	Notifications map[string]bool `json:"notifications,omitempty"`
}

// Validate checks the update request and reports every violation.
func (r *UpdateUserRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Username != nil {
		if len(*r.Username) < MinUsernameLength {
			errors = append(errors, FieldError{Field: "username", Message: fmt.Sprintf("username must be at least %d characters", MinUsernameLength)})
		} else if len(*r.Username) > MaxUsernameLength {
			errors = append(errors, FieldError{Field: "username", Message: fmt.Sprintf("username must be %d characters or less", MaxUsernameLength)})
		}
	}
	if r.Firstname != nil && len(*r.Firstname) > MaxNameLength {
		errors = append(errors, FieldError{Field: "firstname", Message: fmt.Sprintf("firstname must be %d characters or less", MaxNameLength)})
	}
	if r.Lastname != nil && len(*r.Lastname) > MaxNameLength {
		errors = append(errors, FieldError{Field: "lastname", Message: fmt.Sprintf("lastname must be %d characters or less", MaxNameLength)})
	}
	for key := range r.Notifications {
		valid := false
		for _, k := range ValidNotificationKeys {
			if key == k {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, FieldError{Field: "notifications." + key, Message: "unknown notification preference"})
		}
	}

	return errors
}
