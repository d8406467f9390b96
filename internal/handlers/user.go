package handlers

import (
	"errors"
	"net/http"

	"github.com/markbates/goth/gothic"

	"github.com/oakwell/treeaid/internal/apperror"
	"github.com/oakwell/treeaid/internal/auth"
	"github.com/oakwell/treeaid/models"
)

// Me handles GET /api/me: the authenticated user, or an empty object for
// anonymous sessions. Anonymity is a valid state, never an error — a
// session whose account has since been removed reads as anonymous too.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.UserID(r.Context())
	if id == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	user, err := h.Users.ByID(r.Context(), *id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UserInfo handles POST /api/user/info: a user's profile with the trees
// they posted and the trees they saved.
func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	userID, err := formUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.Users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// OAuthCallback completes the provider handshake, upserts the account by
// email, and stores the user id in the cookie session.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.Log.Error("completing oauth", "error", err)
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	user, err := h.Users.FindOrCreateByEmail(r.Context(), models.User{
		Name:      gothUser.Name,
		Email:     gothUser.Email,
		AvatarURL: gothUser.AvatarURL,
		Location:  gothUser.Location,
		Google:    gothUser.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := gothic.Store.Get(r, auth.SessionName)
	if err != nil {
		writeError(w, err)
		return
	}
	session.Values["user_id"] = user.ID
	if err := session.Save(r, w); err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// BeginAuth starts the OAuth flow unless the session is already
// authenticated.
func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	if gothUser, err := gothic.CompleteUserAuth(w, r); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": gothUser.Name})
		return
	}
	gothic.BeginAuthHandler(w, r)
}

// Logout clears the provider session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := gothic.Logout(w, r); err != nil {
		h.Log.Error("logging out", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}
