package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// CommentHandler exposes comment endpoints scoped to a check-in.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=512"`
}

// POST /api/checkins/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.comments.Create(requestContext(c), userID, c.Param("id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// GET /api/checkins/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	comments, err := h.comments.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, comments)
}

// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.comments.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
