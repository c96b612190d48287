package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// LikeHandler exposes like endpoints scoped to a check-in.
type LikeHandler struct {
	likes *services.LikeService
}

func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// POST /api/checkins/:id/likes
func (h *LikeHandler) Like(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	like, err := h.likes.Like(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, like)
}

// DELETE /api/checkins/:id/likes
func (h *LikeHandler) Unlike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.likes.Unlike(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/checkins/:id/likes
func (h *LikeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	likes, err := h.likes.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, likes)
}
