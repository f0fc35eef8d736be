package middleware

import (
	"context"
	"net/http"
	"strings"

	"furnishop/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const sessionUserKey contextKey = "session_user"

// RequireSession validates the bearer token against the in-memory session
// store and puts the session username on the request context. All catalog
// write routes sit behind this.
func RequireSession(auth service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				logger.Debug("Missing bearer token")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			session, err := auth.Verify(token)
			if err != nil {
				logger.Debug("Session verification failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserKey, session.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header, or "" when
// the header is absent or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetSessionUser extracts the authenticated username from request context
func GetSessionUser(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(sessionUserKey).(string)
	return username, ok
}
