package middleware

import (
	"context"
	"net/http"

	"github.com/homebase-app/homebase/api"
	"github.com/homebase-app/homebase/session"
)

type contextKey string

const ProfileIDKey contextKey = "profile_id"

// Auth resolves the session cookie into a profile id on the request context.
// Requests without a valid session pass through unauthenticated.
func Auth(sessionRepo session.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessionRepo.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				http.SetCookie(w, session.ExpiredCookie())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ProfileIDKey, sess.ProfileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			api.Detail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetProfileID extracts the authenticated profile id from context.
func GetProfileID(ctx context.Context) (int64, bool) {
	profileID, ok := ctx.Value(ProfileIDKey).(int64)
	return profileID, ok
}

// IsAuthenticated checks if the request carries a valid session.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := GetProfileID(ctx)
	return ok
}
