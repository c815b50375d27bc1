package repository

import (
	"context"
	"errors"
	"strings"

	"network/internal/cache"
	"network/internal/database"
	"network/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users. Username and email
// lookups are case-insensitive.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

// findOne reads from the primary: uniqueness checks must see the latest writes.
func (r *userRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	err := database.Primary(r.db.WithContext(ctx)).
		Where("LOWER("+column+") = ?", strings.ToLower(strings.TrimSpace(value))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user matches.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

// GetByUsername returns nil, nil when no user matches.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already taken.")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile writes the editable profile columns. Counters are never
// touched here.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).
		Select("username", "email", "profile_picture").
		Updates(map[string]any{
			"username":        user.Username,
			"email":           user.Email,
			"profile_picture": user.ProfilePicture,
		}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already taken.")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateProfiles(ctx, user.ID)
	return nil
}
