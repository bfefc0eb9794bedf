package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/backend/internal/auth"
	"github.com/quizdeck/backend/pkg/response"
)

const (
	// ContextOrganizerID is the key for the organizer ID in gin context.
	ContextOrganizerID = "organizer_id"
	// ContextUsername is the key for the organizer username in gin context.
	ContextUsername = "username"
	// ContextRole is the key for the caller role in gin context.
	ContextRole = "role"
)

// JWT returns a middleware that validates the bearer token and sets the
// organizer claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextOrganizerID, claims.OrganizerID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
