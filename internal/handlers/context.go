package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext extracts the context carried by the incoming request.
// Handlers built by hand in tests may lack a request, so nil receivers
// degrade to context.Background.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
