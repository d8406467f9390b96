package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/geo"
	"github.com/oakwell/treeaid/internal/upload"
	"github.com/oakwell/treeaid/models"
)

var manhattan = geo.Point{Lng: -73.99, Lat: 40.73}

func imageFiles(names ...string) []upload.File {
	files := make([]upload.File, 0, len(names))
	for _, n := range names {
		files = append(files, upload.File{
			Filename:   n,
			MimeType:   "image/jpeg",
			StorageKey: "trees/originals/" + n,
		})
	}
	return files
}

func TestCreateInfected(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	id, err := repo.CreateInfected(ctx, nil, manhattan, "oak, brown leaves", imageFiles("a.jpg", "b.jpg"))
	require.NoError(t, err)
	require.NotZero(t, id)

	var tree models.Tree
	require.NoError(t, gdb.First(&tree, id).Error)
	assert.False(t, tree.IsHealthy)
	assert.Nil(t, tree.SaverID)
	assert.Nil(t, tree.PosterID)
	assert.Equal(t, "oak, brown leaves", tree.Description)
	assert.InDelta(t, -73.99, tree.Location.Lng, 1e-6)
	assert.InDelta(t, 40.73, tree.Location.Lat, 1e-6)

	var pictures []models.Picture
	require.NoError(t, gdb.Where("tree_id = ?", id).Find(&pictures).Error)
	require.Len(t, pictures, 2)
	for _, p := range pictures {
		assert.True(t, p.IsBefore)
	}
}

func TestCreateInfectedRequiresPictures(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)

	_, err := repo.CreateInfected(context.Background(), nil, manhattan, "elm", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

// The image-only policy holds at the persistence boundary too, before any
// statement is issued, so these run without a database.
func TestCreateInfectedRejectsNonImageFiles(t *testing.T) {
	repo := NewTreeRepo(nil)

	files := imageFiles("a.jpg")
	files = append(files, upload.File{Filename: "notes.pdf", MimeType: "application/pdf"})

	_, err := repo.CreateInfected(context.Background(), nil, manhattan, "elm", files)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestMarkSavedRejectsNonImageFiles(t *testing.T) {
	repo := NewTreeRepo(nil)

	err := repo.MarkSaved(context.Background(), 1, nil, []upload.File{
		{Filename: "report.txt", MimeType: "text/plain"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestCreateInfectedDuplicateFilenameRollsBack(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	_, err := repo.CreateInfected(ctx, nil, manhattan, "first", imageFiles("same.jpg"))
	require.NoError(t, err)

	_, err = repo.CreateInfected(ctx, nil, manhattan, "second", imageFiles("same.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrIntegrity))

	// The failed picture insert must not leave an orphaned tree behind.
	var count int64
	require.NoError(t, gdb.Model(&models.Tree{}).Where("description = ?", "second").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMarkSaved(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	saver := createTestUser(t, gdb, "Ada", "ada@example.com")
	id, err := repo.CreateInfected(ctx, nil, manhattan, "maple", imageFiles("before.jpg"))
	require.NoError(t, err)

	err = repo.MarkSaved(ctx, id, &saver.ID, imageFiles("after.jpg"))
	require.NoError(t, err)

	var tree models.Tree
	require.NoError(t, gdb.First(&tree, id).Error)
	assert.True(t, tree.IsHealthy)
	require.NotNil(t, tree.SaverID)
	assert.Equal(t, saver.ID, *tree.SaverID)

	var after []models.Picture
	require.NoError(t, gdb.Where("tree_id = ? AND is_before = false", id).Find(&after).Error)
	assert.Len(t, after, 1)
}

func TestMarkSavedSecondCallFails(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	saver := createTestUser(t, gdb, "Ada", "ada@example.com")
	id, err := repo.CreateInfected(ctx, nil, manhattan, "maple", imageFiles("before.jpg"))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSaved(ctx, id, &saver.ID, nil))

	// The conditional update matches zero rows once the tree is healthy,
	// so a duplicate save loses.
	err = repo.MarkSaved(ctx, id, &saver.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	var tree models.Tree
	require.NoError(t, gdb.First(&tree, id).Error)
	assert.Equal(t, saver.ID, *tree.SaverID)
}

func TestMarkSavedUnknownTree(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)

	err := repo.MarkSaved(context.Background(), 9999, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestFindNear(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	near := geo.Point{Lng: -73.985, Lat: 40.735} // under a kilometer away
	far := geo.Point{Lng: -71.06, Lat: 42.36}    // Boston, ~300 km away
	center := manhattan

	nearID, err := repo.CreateInfected(ctx, nil, near, "near", imageFiles("near.jpg"))
	require.NoError(t, err)
	_, err = repo.CreateInfected(ctx, nil, far, "far", imageFiles("far.jpg"))
	require.NoError(t, err)

	radius := geo.MilesToMeters(10)
	trees, err := repo.FindNear(ctx, center, radius, nil, 15)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, nearID, trees[0].ID)

	for _, tree := range trees {
		assert.LessOrEqual(t, geo.Haversine(center, tree.Location), radius*1.01)
	}
}

func TestFindNearHealthFilter(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	sickID, err := repo.CreateInfected(ctx, nil, manhattan, "sick", imageFiles("sick.jpg"))
	require.NoError(t, err)
	savedID, err := repo.CreateInfected(ctx, nil, manhattan, "saved", imageFiles("saved.jpg"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkSaved(ctx, savedID, nil, nil))

	radius := geo.MilesToMeters(10)

	healthy := true
	trees, err := repo.FindNear(ctx, manhattan, radius, &healthy, 15)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, savedID, trees[0].ID)

	healthy = false
	trees, err = repo.FindNear(ctx, manhattan, radius, &healthy, 15)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, sickID, trees[0].ID)
}

func TestFindNearLimit(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	for _, name := range []string{"1.jpg", "2.jpg", "3.jpg"} {
		_, err := repo.CreateInfected(ctx, nil, manhattan, "tree", imageFiles(name))
		require.NoError(t, err)
	}

	trees, err := repo.FindNear(ctx, manhattan, geo.MilesToMeters(10), nil, 2)
	require.NoError(t, err)
	assert.Len(t, trees, 2)
}

func TestDetail(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	poster := createTestUser(t, gdb, "Grace", "grace@example.com")
	id, err := repo.CreateInfected(ctx, &poster.ID, manhattan, "oak, brown leaves", imageFiles("b1.jpg", "b2.jpg"))
	require.NoError(t, err)

	detail, err := repo.Detail(ctx, id)
	require.NoError(t, err)
	assert.False(t, detail.Tree.IsHealthy)
	assert.Equal(t, "Grace", detail.PosterName)
	require.Len(t, detail.Pictures, 2)
	for _, p := range detail.Pictures {
		assert.True(t, p.IsBefore)
	}

	// Once saved, the detail switches to the "after" picture set.
	require.NoError(t, repo.MarkSaved(ctx, id, nil, imageFiles("after.jpg")))
	detail, err = repo.Detail(ctx, id)
	require.NoError(t, err)
	assert.True(t, detail.Tree.IsHealthy)
	require.Len(t, detail.Pictures, 1)
	assert.False(t, detail.Pictures[0].IsBefore)
}

func TestDetailGuestPoster(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)
	ctx := context.Background()

	id, err := repo.CreateInfected(ctx, nil, manhattan, "anonymous report", imageFiles("g.jpg"))
	require.NoError(t, err)

	detail, err := repo.Detail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.GuestDisplayName, detail.PosterName)
}

func TestDetailNotFound(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewTreeRepo(gdb)

	_, err := repo.Detail(context.Background(), 424242)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
