package transport

import (
	"context"
	"net/http"
	"strings"
)

// UserHeader optionally names the acting user.
const UserHeader = "X-Atlas-User"

type userKey struct{}

// UserFromContext returns the acting user from context, if present.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok
}

// UserMiddleware extracts X-Atlas-User and stores it in context.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID != "" {
			ctx := context.WithValue(r.Context(), userKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}
