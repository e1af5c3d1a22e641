package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader names the user on whose behalf a request is made
	ActorHeader = "X-Actor"

	// ActorKey is the key used to store the actor in the context
	ActorKey = "actor"

	// SystemActor stamps writes of requests that carry no actor
	SystemActor = "system"
)

// Actor records who issued the request so writes can be audited
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = SystemActor
		}
		c.Set(ActorKey, actor)

		c.Next()
	}
}

// GetActor retrieves the actor from the gin context, falling back to SystemActor
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return SystemActor
}
