package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// SessionCookie is the name of the cookie carrying the opaque session ID.
const SessionCookie = "session"

// SessionTTL is how long a login session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the values we store.
type contextKey string

const userIDKey contextKey = "userID"

// RequireSession enforces authentication on protected routes. It reads the
// session cookie, looks the session up in the store, checks expiry, and puts
// the user ID in the request context. Missing, unknown, or expired sessions
// end the request with 401.
func RequireSession(sessions repository.SessionRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			session, err := sessions.GetSession(r.Context(), cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			if session.Expired(time.Now()) {
				// Opportunistically drop the stale row; the janitor would
				// get it eventually anyway.
				if err := sessions.DeleteSession(r.Context(), session.ID); err != nil {
					logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
				}
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) on an unauthenticated request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
}
