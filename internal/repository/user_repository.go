package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// UserRepository handles user and profile database operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return classify(err, "create user", "username already exists")
	}
	return nil
}

// AssignTenant creates the profile linking a user to a tenant
func (r *UserRepository) AssignTenant(ctx context.Context, userID, tenantID uuid.UUID) (*models.UserProfile, error) {
	profile := &models.UserProfile{UserID: userID, TenantID: tenantID}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, classify(err, "create user profile", "user already has a profile")
	}
	return profile, nil
}

// GetByID retrieves a user by ID together with its profile
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, classify(err, "get user", "")
	}
	return &user, nil
}

// SetActive activates or deactivates a user
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Not found.")
	}
	return nil
}
