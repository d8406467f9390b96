// Package repository implements persistence for trees, pictures and users
// on top of gorm and PostGIS.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/geo"
	"github.com/oakwell/treeaid/internal/upload"
	"github.com/oakwell/treeaid/models"
)

type TreeRepo struct {
	db *gorm.DB
}

func NewTreeRepo(db *gorm.DB) *TreeRepo {
	return &TreeRepo{db: db}
}

// TreeDetail is the read model for a single tree: the tree itself, the
// picture set matching its current state, and the poster's display name.
type TreeDetail struct {
	Tree       models.Tree      `json:"tree"`
	Pictures   []models.Picture `json:"pictures"`
	PosterName string           `json:"posterName"`
}

// CreateInfected inserts a new unhealthy tree and its "before" pictures in
// one transaction, so a failed picture insert never leaves an orphaned
// tree. At least one picture is required.
func (r *TreeRepo) CreateInfected(ctx context.Context, posterID *uint, point geo.Point, description string, files []upload.File) (uint, error) {
	if len(files) == 0 {
		return 0, apperror.ValidationFailed("picture", "at least one picture is required")
	}
	if err := validateImageFiles(files); err != nil {
		return 0, err
	}

	tree := models.Tree{
		Location:    point,
		PosterID:    posterID,
		SaverID:     nil,
		IsHealthy:   false,
		Description: description,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tree).Error; err != nil {
			return fmt.Errorf("inserting tree: %w", err)
		}
		pictures := make([]models.Picture, 0, len(files))
		for _, f := range files {
			pictures = append(pictures, models.Picture{
				Filename:   f.Filename,
				StorageKey: f.StorageKey,
				MimeType:   f.MimeType,
				TreeID:     tree.ID,
				IsBefore:   true,
			})
		}
		if err := tx.Create(&pictures).Error; err != nil {
			return fmt.Errorf("inserting pictures: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return tree.ID, nil
}

// MarkSaved transitions a tree from unhealthy to healthy and attaches the
// "after" pictures. The transition is a single conditional update keyed on
// is_healthy = false, so of two concurrent savers exactly one wins; the
// loser sees zero rows affected and gets a not-found error.
func (r *TreeRepo) MarkSaved(ctx context.Context, treeID uint, saverID *uint, files []upload.File) error {
	if err := validateImageFiles(files); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tree{}).
			Where("id = ? AND is_healthy = ?", treeID, false).
			Updates(map[string]any{
				"is_healthy": true,
				"saver_id":   saverID,
			})
		if res.Error != nil {
			return fmt.Errorf("updating tree: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("no tree with id %d needing restoration", treeID),
			}
		}

		if len(files) == 0 {
			return nil
		}
		pictures := make([]models.Picture, 0, len(files))
		for _, f := range files {
			pictures = append(pictures, models.Picture{
				Filename:   f.Filename,
				StorageKey: f.StorageKey,
				MimeType:   f.MimeType,
				TreeID:     treeID,
				IsBefore:   false,
			})
		}
		if err := tx.Create(&pictures).Error; err != nil {
			return fmt.Errorf("inserting pictures: %w", err)
		}
		return nil
	})
	return translate(err)
}

// FindNear returns trees within radiusMeters of the query point, great
// circle. healthy filters by state when non-nil. Results are capped at
// limit; ordering is not significant.
func (r *TreeRepo) FindNear(ctx context.Context, point geo.Point, radiusMeters float64, healthy *bool, limit int) ([]models.Tree, error) {
	q := r.db.WithContext(ctx).Model(&models.Tree{}).
		Where("ST_DistanceSphere(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)) <= ?",
			point.Lng, point.Lat, radiusMeters)
	if healthy != nil {
		q = q.Where("is_healthy = ?", *healthy)
	}

	var trees []models.Tree
	if err := q.Limit(limit).Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("repository: searching trees: %w", err)
	}
	return trees, nil
}

// Detail loads one tree by id. Zero matches and more than one match both
// fail as not found; a duplicated id would be a data-integrity violation
// and must not be silently resolved. Pictures are filtered to the set that
// matches the tree's current state: "before" shots while infected, "after"
// shots once saved.
func (r *TreeRepo) Detail(ctx context.Context, treeID uint) (*TreeDetail, error) {
	var trees []models.Tree
	if err := r.db.WithContext(ctx).Where("id = ?", treeID).Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("repository: loading tree: %w", err)
	}
	if len(trees) != 1 {
		return nil, apperror.NotFound("tree", treeID)
	}
	tree := trees[0]

	var pictures []models.Picture
	err := r.db.WithContext(ctx).
		Where("tree_id = ? AND is_before = ?", treeID, !tree.IsHealthy).
		Find(&pictures).Error
	if err != nil {
		return nil, fmt.Errorf("repository: loading pictures: %w", err)
	}

	posterName := models.GuestDisplayName
	if tree.PosterID != nil {
		var poster models.User
		err := r.db.WithContext(ctx).Where("id = ?", *tree.PosterID).First(&poster).Error
		switch {
		case err == nil:
			posterName = poster.Name
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Dangling poster id reads as a guest report.
		default:
			return nil, fmt.Errorf("repository: loading poster: %w", err)
		}
	}

	return &TreeDetail{
		Tree:       tree,
		Pictures:   pictures,
		PosterName: posterName,
	}, nil
}

// validateImageFiles re-applies the image-only policy at the persistence
// boundary, independent of the transport-layer filter.
func validateImageFiles(files []upload.File) error {
	for _, f := range files {
		if !upload.IsImage(f.MimeType) {
			return apperror.ValidationFailed("picture", "included non-image file: "+f.Filename)
		}
	}
	return nil
}

// translate maps gorm errors onto the application taxonomy, leaving
// already-typed errors untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Integrity("duplicate key: " + err.Error())
	}
	return err
}
