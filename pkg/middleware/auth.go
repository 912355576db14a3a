package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dnlflores/starter-ios-app-backend/pkg/jwt"
	"github.com/dnlflores/starter-ios-app-backend/pkg/response"
)

const (
	UserIDKey      = "user_id"
	UsernameKey    = "username"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	InternalKeyHdr = "X-Internal-Key"
)

// TokenValidator is satisfied by *jwt.Verifier.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates REST-issued JWTs locally with the shared secret.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth returns a Gin middleware that validates JWT tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.validator.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "token has expired"
			}
			response.Unauthorized(c, msg)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

// RequireInternalKey guards service-to-service routes. An empty key disables the check.
func RequireInternalKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(InternalKeyHdr)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			response.Forbidden(c, "invalid internal key")
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(UserIDKey); exists {
		if v, ok := id.(int64); ok {
			return v
		}
	}
	return 0
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}
