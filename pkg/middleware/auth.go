package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/response"
)

const (
	ParticipantIDKey = log.FieldParticipantID
	RoleKey          = log.FieldRole
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// AuthMiddleware validates bearer tokens through an identity resolver.
type AuthMiddleware struct {
	resolver jwt.Resolver
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(resolver jwt.Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth returns a Gin middleware that validates JWT tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		identity, err := m.resolver.Resolve(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "token has expired"
			}
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}

		c.Set(ParticipantIDKey, identity.ParticipantID)
		c.Set(RoleKey, identity.Role)

		c.Next()
	}
}

// GetParticipantID extracts the caller's participant ID from Gin context.
func GetParticipantID(c *gin.Context) string {
	return c.GetString(ParticipantIDKey)
}

// GetRole extracts the caller's role from Gin context.
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// GetIdentity rebuilds the resolved identity from Gin context, nil when the
// request did not pass RequireAuth.
func GetIdentity(c *gin.Context) *jwt.Identity {
	id := GetParticipantID(c)
	if id == "" {
		return nil
	}
	return &jwt.Identity{ParticipantID: id, Role: GetRole(c)}
}
