package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/auth"
	"github.com/erazemk/fixitforward/internal/navigation"
	"github.com/erazemk/fixitforward/internal/session"
)

type contextKey string

const (
	claimsKey     contextKey = "claims"
	controllerKey contextKey = "controller"
)

// Revocations is the list of logged-out tokens.
type Revocations interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware validates the JWT from the Authorization header and adds
// the claims and the session's controller to the context.
func AuthMiddleware(secret string, revoked Revocations, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := auth.ValidateToken(secret, tokenStr)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			isRevoked, err := revoked.IsTokenRevoked(r.Context(), claims.SessionID())
			if err != nil {
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if isRevoked {
				jsonError(w, http.StatusUnauthorized, "token revoked")
				return
			}

			ctrl, ok := sessions.Get(claims.SessionID())
			if !ok {
				jsonError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, controllerKey, ctrl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// GetController retrieves the session's navigation controller from the context.
func GetController(ctx context.Context) *navigation.Controller {
	ctrl, _ := ctx.Value(controllerKey).(*navigation.Controller)
	return ctrl
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.RequestURI()),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
			)
		})
	}
}
