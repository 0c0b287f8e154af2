// Package middleware provides the gin middleware chain: request ids, request
// logging, metrics, timeouts and the session gate.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// SessionCookie carries the session token in browsers.
const SessionCookie = "session_token"

// sessionErrorKey holds a failed resolution for RequireAuth to report.
const sessionErrorKey = "session_error"

// Resolver maps a session token onto the caller's identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, bool, error)
}

// Session resolves the request's session token, if any, and stores the
// caller's identity on the request context. It never rejects a request;
// unresolvable tokens leave the caller anonymous. A store failure is kept on
// the gin context so protected routes can answer it as such.
func Session(resolver Resolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		id, ok, err := resolver.Resolve(ctx, token)
		if err != nil {
			log.WarnContext(ctx, "session lookup failed", slog.String("error", err.Error()))
			c.Set(sessionErrorKey, err)
		}
		if ok {
			ctx = auth.WithIdentity(ctx, id)
			ctx = logging.WithUserID(ctx, id.UserID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// TokenFromRequest returns the session token from the cookie or, failing
// that, an Authorization: Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects anonymous callers with 401, or with 500 when the
// session could not be looked up at all.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.IdentityFromContext(c.Request.Context()); !ok {
			if v, failed := c.Get(sessionErrorKey); failed {
				err, _ := v.(error)
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewInternalError(err).Response())
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthenticatedError("Not authenticated").Response())
			return
		}
		c.Next()
	}
}
