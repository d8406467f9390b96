// Package handlers wires HTTP requests to the repositories, the picture
// store, and the geocoder.
package handlers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/oakwell/treeaid/internal/auth"
	"github.com/oakwell/treeaid/internal/config"
	"github.com/oakwell/treeaid/internal/geo"
	"github.com/oakwell/treeaid/internal/geocode"
	"github.com/oakwell/treeaid/internal/repository"
	"github.com/oakwell/treeaid/internal/storage"
	"github.com/oakwell/treeaid/internal/upload"
	"github.com/oakwell/treeaid/models"
)

// pictureField is the multipart field name the client posts pictures under.
const pictureField = "picture"

const maxUploadBytes = 32 << 20

// TreeStore is the tree persistence surface the handlers need; satisfied
// by *repository.TreeRepo.
type TreeStore interface {
	CreateInfected(ctx context.Context, posterID *uint, point geo.Point, description string, files []upload.File) (uint, error)
	MarkSaved(ctx context.Context, treeID uint, saverID *uint, files []upload.File) error
	FindNear(ctx context.Context, point geo.Point, radiusMeters float64, healthy *bool, limit int) ([]models.Tree, error)
	Detail(ctx context.Context, treeID uint) (*repository.TreeDetail, error)
}

// UserStore is the user persistence surface the handlers need; satisfied
// by *repository.UserRepo.
type UserStore interface {
	ByID(ctx context.Context, userID uint) (*models.User, error)
	Profile(ctx context.Context, userID uint) (*repository.UserProfile, error)
	FindOrCreateByEmail(ctx context.Context, candidate models.User) (*models.User, error)
}

// PictureStore stores one uploaded picture and cleans up stored objects
// when the surrounding write fails; satisfied by *storage.Store.
type PictureStore interface {
	SavePicture(ctx context.Context, header *multipart.FileHeader) (upload.File, error)
	Remove(ctx context.Context, files []upload.File)
}

// pictureView is a picture row plus its rendered public URL.
type pictureView struct {
	models.Picture
	URL string `json:"url"`
}

type Handler struct {
	Trees    TreeStore
	Users    UserStore
	Store    PictureStore
	Geocoder geocode.Geocoder
	Config   *config.Config
	Log      *slog.Logger
}

// InfectedTree handles POST /api/tree/infected: report a new infected tree
// with at least one picture.
func (h *Handler) InfectedTree(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, err)
		return
	}

	point, err := formPoint(r)
	if err != nil {
		writeError(w, err)
		return
	}
	description := r.FormValue("description")

	files, err := h.storePictures(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Trees.CreateInfected(r.Context(), auth.UserID(r.Context()), point, description, files)
	if err != nil {
		h.Store.Remove(r.Context(), files)
		writeError(w, err)
		return
	}

	h.Log.Info("infected tree reported", "tree_id", id, "pictures", len(files))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       id,
		"pictures": len(files),
		"urls":     h.uploadURLs(files),
	})
}

// SavedTree handles POST /api/tree/saved: transition a tree to healthy,
// optionally attaching "after" pictures.
func (h *Handler) SavedTree(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, err)
		return
	}

	treeID, err := formUint(r, "treeId")
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := h.storePictures(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Trees.MarkSaved(r.Context(), treeID, auth.UserID(r.Context()), files); err != nil {
		// A losing concurrent saver must not leave orphaned objects in
		// the bucket.
		h.Store.Remove(r.Context(), files)
		writeError(w, err)
		return
	}

	h.Log.Info("tree marked saved", "tree_id", treeID, "pictures", len(files))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       treeID,
		"pictures": len(files),
		"urls":     h.uploadURLs(files),
	})
}

// GetTrees handles POST /api/trees: proximity search around a point.
// Radius arrives in miles ("range") and limit as "number"; both are
// defaulted and capped by configuration.
func (h *Handler) GetTrees(w http.ResponseWriter, r *http.Request) {
	point, err := formPoint(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rangeMiles, err := formFloatOr(r, "range", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := formIntOr(r, "number", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	healthy, err := formBoolOpt(r, "isHealthy")
	if err != nil {
		writeError(w, err)
		return
	}

	radius := geo.MilesToMeters(h.Config.ClampRadiusMiles(rangeMiles))
	trees, err := h.Trees.FindNear(r.Context(), point, radius, healthy, h.Config.ClampLimit(limit))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"trees": trees})
}

// TreeInfo handles POST /api/tree/info: a single tree with its
// state-matching pictures, poster display name, and geocoded locality.
// A geocoding failure fails the whole request; locality has no fallback.
func (h *Handler) TreeInfo(w http.ResponseWriter, r *http.Request) {
	treeID, err := formUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.Trees.Detail(r.Context(), treeID)
	if err != nil {
		writeError(w, err)
		return
	}

	city, err := h.Geocoder.CityFor(r.Context(), detail.Tree.Location)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tree":       detail.Tree,
		"pictures":   h.pictureViews(detail.Pictures),
		"posterName": detail.PosterName,
		"city":       city,
	})
}

func (h *Handler) pictureViews(pictures []models.Picture) []pictureView {
	views := make([]pictureView, 0, len(pictures))
	for _, p := range pictures {
		views = append(views, pictureView{
			Picture: p,
			URL:     storage.PublicURL(h.Config.PublicURL, p.StorageKey),
		})
	}
	return views
}

func (h *Handler) uploadURLs(files []upload.File) []string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, storage.PublicURL(h.Config.PublicURL, f.StorageKey))
	}
	return urls
}

// storePictures validates the upload batch and stores each file, returning
// the descriptors to persist. Validation is strict: one non-image rejects
// the whole batch before anything is stored.
func (h *Handler) storePictures(r *http.Request) ([]upload.File, error) {
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[pictureField]
	}
	if err := upload.ValidateImages(headers); err != nil {
		return nil, err
	}

	files := make([]upload.File, 0, len(headers))
	for _, header := range headers {
		f, err := h.Store.SavePicture(r.Context(), header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
