package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// UserType represents the account type inside the tenant ownership chain.
type UserType string

const (
	// UserTypeSuperAdmin owns the global settings in multi-tenant mode.
	UserTypeSuperAdmin UserType = "superadmin"
	// UserTypeCompany is a tenant-owning account.
	UserTypeCompany UserType = "company"
	// UserTypeHR is a staff account created by a company.
	UserTypeHR UserType = "hr"
	// UserTypeEmployee is a regular employee account created by a company.
	UserTypeEmployee UserType = "employee"
)

// WhereNameIs is a reusable where clause for name lookups.
const WhereNameIs = "name = ?"

// User represents a user account in the system.
// Every non-root account carries a CreatedBy pointer to the account that
// created it; settings resolution walks this chain to find the owning tenant.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// Type places the account in the tenant ownership chain.
	Type UserType `gorm:"type:varchar(20);not null;default:'employee'"`
	// CreatedBy is the ID of the account that created this one (nil for roots).
	CreatedBy *uint64 `gorm:"index"`
	// RoleID is the ID of the role assigned to this user.
	RoleID uint `gorm:"column:role_id;not null"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
