// Package auth resolves the session's user into the request context.
// Identity is optional on every API route: anonymous visitors may report
// and save trees as guests.
package auth

import (
	"context"
	"net/http"

	"github.com/markbates/goth/gothic"
)

type contextKey struct{}

var userIDKey contextKey

// SessionName is the cookie session shared with gothic.
const SessionName = "_treeaid_session"

// CurrentUser copies the session's user id, when present, into the request
// context. Requests without a session pass through unchanged.
func CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := gothic.Store.Get(r, SessionName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if id, ok := session.Values["user_id"].(uint); ok && id != 0 {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a context carrying the authenticated user's id.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user's id from the context. A nil
// result means an anonymous session, which is a valid state everywhere.
func UserID(ctx context.Context) *uint {
	if id, ok := ctx.Value(userIDKey).(uint); ok {
		return &id
	}
	return nil
}
