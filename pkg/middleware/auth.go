package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
	"github.com/sirosfoundation/go-ehms-backend/internal/auth"
	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
)

// IdentityKey is the gin context key holding the verified *domain.Identity
const IdentityKey = "identity"

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity stored by Authenticate, if any
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return id, ok && id != nil
}

// GetIdentity returns the identity attached to the gin context
func GetIdentity(c *gin.Context) (*domain.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*domain.Identity)
	return id, ok && id != nil
}

// abortWithError records err for the error responder and writes the JSON
// error body so nothing further in the chain runs.
func abortWithError(c *gin.Context, err *apperror.Error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.StatusCode(), gin.H{"error": err.Message})
}

// Authenticate validates the bearer token and attaches the caller identity
func Authenticate(v *auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperror.Unauthenticated("Authorization header required", nil))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperror.Unauthenticated("Invalid authorization header format", nil))
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortWithError(c, apperror.Unauthenticated("Token required", nil))
			return
		}

		identity, err := v.Verify(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token expired"
			}
			logger.Debug("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			abortWithError(c, apperror.Unauthenticated(msg, err))
			return
		}

		c.Set(IdentityKey, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

// RequireRoles admits only identities whose role is a member of roles.
// It must run after Authenticate; a missing identity is a wiring bug.
func RequireRoles(roles domain.RoleSet, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			logger.Error("Role gate reached without an authenticated identity",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
			)
			abortWithError(c, apperror.InternalConfiguration("Internal Server Error"))
			return
		}

		if !roles.Contains(identity.Role) {
			logger.Warn("Access denied for role",
				zap.String("subject", identity.Subject),
				zap.String("role", identity.Role.String()),
				zap.Strings("allowed", roles.Strings()),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, apperror.Forbidden("Access denied: insufficient role"))
			return
		}

		c.Next()
	}
}

// Logger returns a gin middleware for logging
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if identity, ok := GetIdentity(c); ok {
			fields = append(fields, zap.String("subject", identity.Subject))
		}

		logger.Info("Request", fields...)
	}
}
