package identity

import (
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role represents a user's role in the storefront
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// User represents a storefront account
type User struct {
	shared.BaseEntity
	Email        string     `gorm:"uniqueIndex" json:"email"`
	Username     string     `gorm:"uniqueIndex" json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// NewUser creates a new active customer account with a bcrypt-hashed password
func NewUser(email, username, password, fullName string) (*User, error) {
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(password) < 8 {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         RoleCustomer,
		IsActive:     true,
	}, nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RecordLogin stamps the last successful login time
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}
