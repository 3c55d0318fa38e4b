package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"utm-bknd/internal/auth"
)

// RoleAuthority is the claim role required for authority-only endpoints
// (approve, manual tick).
const RoleAuthority = "authority"

type AuthMiddleware struct {
	jwtMgr *auth.JWTManager
	logr   *zap.Logger
}

type contextKey string

const (
	ContextSubjectKey contextKey = "subject"
)

// NewAuthMiddleware creates a reusable JWT auth middleware instance
func NewAuthMiddleware(jwtMgr *auth.JWTManager, logr *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtMgr: jwtMgr, logr: logr}
}

// RequireAuthority validates the bearer token and requires the authority
// role before letting the request through.
func (m *AuthMiddleware) RequireAuthority(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "invalid token format", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtMgr.VerifyToken(tokenString)
		if err != nil {
			m.logr.Warn("token verification failed", zap.Error(err))
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		if !auth.HasRole(claims, RoleAuthority) {
			subject, _ := claims["sub"].(string)
			m.logr.Warn("missing authority role", zap.String("subject", subject))
			http.Error(w, "authority role required", http.StatusForbidden)
			return
		}

		subject, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), ContextSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the authenticated subject attached by RequireAuthority.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(ContextSubjectKey).(string)
	return s
}
