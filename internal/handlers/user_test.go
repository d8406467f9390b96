package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/auth"
	"github.com/oakwell/treeaid/internal/repository"
	"github.com/oakwell/treeaid/models"
)

func TestMeAnonymous(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp["user"])
}

func TestMeAuthenticated(t *testing.T) {
	h, _, users, _, _ := newTestHandler()
	users.user = &models.User{ID: 7, Name: "Ada", Email: "ada@example.com"}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 7))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ada", resp.User.Name)
}

func TestMeStaleSessionReadsAsAnonymous(t *testing.T) {
	h, _, users, _, _ := newTestHandler()
	// Session still carries an id, but the account has been removed.
	users.userErr = apperror.NotFound("user", 7)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 7))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp["user"])
}

func TestUserInfo(t *testing.T) {
	h, _, users, _, _ := newTestHandler()
	users.profile = &repository.UserProfile{
		User:   models.User{ID: 7, Name: "Ada"},
		Posted: []models.Tree{{ID: 1}},
		Saved:  []models.Tree{{ID: 2}, {ID: 3}},
	}

	req := formRequest("/api/user/info", map[string]string{"id": "7"})
	rec := httptest.NewRecorder()
	h.UserInfo(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp repository.UserProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ada", resp.User.Name)
	assert.Len(t, resp.Posted, 1)
	assert.Len(t, resp.Saved, 2)
}

func TestUserInfoNotFound(t *testing.T) {
	h, _, users, _, _ := newTestHandler()
	users.profileErr = apperror.NotFound("user", 99)

	req := formRequest("/api/user/info", map[string]string{"id": "99"})
	rec := httptest.NewRecorder()
	h.UserInfo(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)
}

func TestUserInfoMissingID(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	req := formRequest("/api/user/info", nil)
	rec := httptest.NewRecorder()
	h.UserInfo(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
