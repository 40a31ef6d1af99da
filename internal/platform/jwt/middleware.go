package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voces_backend/internal/feature/auth/domain/entity"
	authusecase "voces_backend/internal/feature/auth/usecase"
)

const bearerPrefix = "Bearer "

// Guard responses.
const (
	MsgNoToken       = "Not authorized, no token"
	MsgTokenFailed   = "Not authorized, token failed"
	MsgUserNotFound  = "Not authorized, user not found"
	MsgNotAdmin      = "Not authorized as an admin"
	MsgMisconfigured = "Server error: JWT secret not configured."
)

// TokenParser verifies a session token.
type TokenParser interface {
	Parse(tokenStr string) (entity.SessionClaims, error)
}

// UserFinder resolves the token subject against the credential store.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type principalKey struct{}

// AuthRequired returns a Gin middleware function that validates session tokens
// and restricts access to authenticated users only.
// The subject is re-resolved on every request so deleted users and changed roles
// take effect immediately.
func AuthRequired(parser TokenParser, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorization header (exact "Bearer " prefix)
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgNoToken})
			return
		}
		tokenStr := strings.TrimPrefix(auth, bearerPrefix)

		// 2. Signature and expiry
		claims, err := parser.Parse(tokenStr)
		if err != nil {
			if errors.Is(err, ErrSecretNotConfigured) {
				slog.Error("session secret is not configured")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MsgMisconfigured})
				return
			}
			slog.Warn("session token rejected", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgTokenFailed})
			return
		}

		// 3. Resolve the subject
		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, authusecase.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgUserNotFound})
				return
			}
			slog.Error("failed to resolve token subject", "error", err, "user_id", claims.UserID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		// 4. Attach the identity and continue
		SetPrincipal(c, user.Principal())
		c.Next()
	}
}

// AdminOnly restricts the route to principals with the ADMIN role.
// It must run after AuthRequired; a request without a principal is rejected.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": MsgNotAdmin})
			return
		}
		c.Next()
	}
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c *gin.Context, p entity.Principal) {
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), principalKey{}, p))
}

// CurrentPrincipal returns the identity attached by AuthRequired.
func CurrentPrincipal(c *gin.Context) (entity.Principal, bool) {
	if c.Request == nil {
		return entity.Principal{}, false
	}
	return PrincipalFromContext(c.Request.Context())
}

// PrincipalFromContext returns the identity stored in ctx, if any.
func PrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(entity.Principal)
	return p, ok
}
