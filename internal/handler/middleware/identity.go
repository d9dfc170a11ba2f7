package middleware

import (
	"net/http"

	"bike-reserve/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	roleStaff = "staff"

	actorKey = "actor"
)

// RequireIdentity resolves the caller from the identity headers set by the
// API gateway. Authentication itself happens upstream; the engine only needs
// to know who is acting and whether they are staff.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerUserID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing " + headerUserID + " header",
			})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid " + headerUserID + " header",
			})
			return
		}

		c.Set(actorKey, commands.Actor{
			UserID:  userID,
			IsStaff: c.GetHeader(headerUserRole) == roleStaff,
		})
		c.Next()
	}
}

// RequireStaff guards operator endpoints. It must run after RequireIdentity.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok || !actor.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Staff role required",
			})
			return
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) (commands.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return commands.Actor{}, false
	}
	actor, ok := v.(commands.Actor)
	return actor, ok
}
