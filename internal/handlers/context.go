package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/middleware"
	"github.com/liuxin327/heartbeat/pkg/errors"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID extracts the authenticated user id set by the auth middleware.
// A missing id writes a 401 response and returns false.
func currentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	userID, _ := v.(string)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}
