package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// UserProfile aggregates a user with the trees they posted and saved.
type UserProfile struct {
	User   models.User   `json:"user"`
	Posted []models.Tree `json:"posted"`
	Saved  []models.Tree `json:"saved"`
}

// Profile loads one user with their posted and saved trees. Zero or
// multiple matching rows both fail as not found.
func (r *UserRepo) Profile(ctx context.Context, userID uint) (*UserProfile, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("repository: loading user: %w", err)
	}
	if len(users) != 1 {
		return nil, apperror.NotFound("user", userID)
	}

	profile := &UserProfile{User: users[0]}
	if err := r.db.WithContext(ctx).Where("poster_id = ?", userID).Find(&profile.Posted).Error; err != nil {
		return nil, fmt.Errorf("repository: loading posted trees: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("saver_id = ?", userID).Find(&profile.Saved).Error; err != nil {
		return nil, fmt.Errorf("repository: loading saved trees: %w", err)
	}
	return profile, nil
}

// ByID loads one user. Absence is reported as gorm.ErrRecordNotFound
// wrapped in a not-found error.
func (r *UserRepo) ByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: loading user: %w", err)
	}
	return &user, nil
}

// FindOrCreateByEmail backs OAuth first-login: an existing account is
// returned as-is, otherwise one is created from the provider profile.
func (r *UserRepo) FindOrCreateByEmail(ctx context.Context, candidate models.User) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", candidate.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("repository: looking up user by email: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		return nil, translate(fmt.Errorf("repository: creating user: %w", err))
	}
	return &candidate, nil
}
