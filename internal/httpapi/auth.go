package httpapi

import (
	"context"
	"net/http"
	"strings"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	roleAdmin      = "admin"
)

// Identity is the caller as forwarded by the upstream auth layer.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, roleAdmin)
}

const identityKey ctxKey = "identity"

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func identityFromHeaders(r *http.Request) Identity {
	return Identity{
		UserID: strings.TrimSpace(r.Header.Get(headerUserID)),
		Role:   strings.TrimSpace(r.Header.Get(headerUserRole)),
	}
}

func (f failer) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFromHeaders(r)
		if id.UserID == "" {
			f.fail(w, r, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	}
}

func (f failer) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return f.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if id, _ := IdentityFrom(r.Context()); !id.IsAdmin() {
			f.fail(w, r, http.StatusForbidden, "Not authorized", nil)
			return
		}
		next(w, r)
	})
}
