package httpapi

import (
	"context"
	"net/http"
	"strings"

	"buildfund/auth"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "role"
)

// requireAuth validates the bearer token and stashes the caller's identity
// in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, role, err := h.auth.VerifyToken(token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func callerRole(ctx context.Context) auth.Role {
	role, _ := ctx.Value(ctxRole).(auth.Role)
	return role
}
