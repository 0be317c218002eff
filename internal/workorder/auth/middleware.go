package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorKey = "actor"

// UserSource resolves a token subject to a stored user.
type UserSource interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Middleware authenticates requests and attaches the acting user to the
// gin context. Tokens arrive as "Authorization: Bearer <token>" or, for
// WebSocket upgrades where browsers cannot set headers, as a "token"
// query parameter.
func Middleware(users UserSource, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := ParseSubject(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil || !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or inactive user"})
			return
		}

		c.Set(actorKey, user.Actor())
		c.Next()
	}
}

// RequireOwner gates owner-only routes. Must run after Middleware.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || actor.Role != models.Owner {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "owner role required"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor attached by Middleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}
