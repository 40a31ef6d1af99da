// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Plan is the subscription tier of a user. The auth flows never interpret it.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// User represents a registered user in the system.
// It contains authentication credentials, verification state and ephemeral tokens.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `gorm:"primaryKey;size:36"`

	// Email is the lower-cased address used for authentication.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password is the bcrypt hash of the user's password.
	// This should never store plaintext passwords.
	Password string `gorm:"size:255;not null"`

	IsVerified bool `gorm:"not null;default:false"`

	// EmailVerificationToken is set at registration and cleared on verification.
	EmailVerificationToken        *string `gorm:"uniqueIndex;size:64"`
	EmailVerificationTokenExpires *time.Time

	// PasswordResetToken is set by forgot-password and cleared by reset-password.
	PasswordResetToken        *string `gorm:"index;size:64"`
	PasswordResetTokenExpires *time.Time

	Role Role `gorm:"size:16;not null;default:'USER'"`
	Plan Plan `gorm:"size:16;not null;default:'FREE'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public returns the projection of u that is safe to send to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Plan:  u.Plan,
		Role:  u.Role,
	}
}

// Principal returns the identity attached to an authorized request.
func (u *User) Principal() Principal {
	return Principal{
		ID:         u.ID,
		Email:      u.Email,
		Plan:       u.Plan,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

// Summary returns the projection used by admin user management.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Plan:       u.Plan,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// PublicUser is returned by registration and login.
type PublicUser struct {
	ID    string
	Email string
	Plan  Plan
	Role  Role
}

// Principal is the identity resolved by the authorization guard.
type Principal struct {
	ID         string
	Email      string
	Plan       Plan
	Role       Role
	IsVerified bool
}

// IsAdmin reports whether the principal has the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserSummary is the admin-facing view of a user.
type UserSummary struct {
	ID         string
	Email      string
	IsVerified bool
	Plan       Plan
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserUpdate carries the fields an administrator may change. Nil means unchanged.
type UserUpdate struct {
	Email      *string
	IsVerified *bool
	Plan       *Plan
	Role       *Role
}
