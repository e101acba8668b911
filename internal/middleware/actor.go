package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/accesskeep/accesskeep/pkg/errors"
	"github.com/accesskeep/accesskeep/pkg/response"
)

// ActorHeader carries the authenticated username set by the fronting proxy.
// Authentication itself happens upstream; this service trusts the header.
const ActorHeader = "X-Forwarded-User"

const actorContextKey = "actor"

// ActorFromHeader resolves the acting user from the forwarded identity header
// and stashes it in the request context for handlers and the access log.
func ActorFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor != "" {
			c.Set(actorContextKey, actor)
		}
		c.Next()
	}
}

// RequireActor aborts with 403 when no authenticated identity accompanies the
// request. System operations never proceed on behalf of an anonymous caller.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c) == "" {
			response.Error(c, apperrors.ErrPermissionDenied.WithMessage("authenticated user identity is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Actor returns the acting username for the request, or "" when anonymous.
func Actor(c *gin.Context) string {
	if value, ok := c.Get(actorContextKey); ok {
		if actor, ok := value.(string); ok {
			return actor
		}
	}
	return ""
}
