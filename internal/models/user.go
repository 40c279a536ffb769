package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can authenticate against the API
type User struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string       `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	PasswordHash string       `gorm:"type:text" json:"-"`
	IsActive     bool         `gorm:"not null" json:"is_active"`
	Profile      *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile associates a user with the tenant it acts for
type UserProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
}

// TableName overrides the table name
func (UserProfile) TableName() string {
	return "user_profiles"
}

// BeforeCreate hook
func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Principal is an authenticated identity. TenantID is nil when the user has
// no profile, in which case the principal is never tenant-scoped.
type Principal struct {
	UserID   uuid.UUID
	Username string
	TenantID *uuid.UUID
}

// PrincipalFromUser builds a principal from a user and its optional profile
func PrincipalFromUser(u *User) *Principal {
	p := &Principal{
		UserID:   u.ID,
		Username: u.Username,
	}
	if u.Profile != nil && u.Profile.TenantID != uuid.Nil {
		tenantID := u.Profile.TenantID
		p.TenantID = &tenantID
	}
	return p
}

// AccessClaims represents the claims carried by an access token
type AccessClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}
