package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// ScoreHandler exposes the score request workflow.
type ScoreHandler struct {
	scores *services.ScoreService
}

func NewScoreHandler(scores *services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

type createScoreRequest struct {
	Points int    `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required,max=256"`
}

// POST /api/scores/requests
func (h *ScoreHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createScoreRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.scores.CreateRequest(requestContext(c), userID, services.CreateScoreRequestInput{
		Points: req.Points,
		Reason: req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, request)
}

// GET /api/scores/requests
func (h *ScoreHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.scores.ListRequests(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}

type respondScoreRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// POST /api/scores/requests/:id/respond
func (h *ScoreHandler) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req respondScoreRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.scores.Respond(requestContext(c), userID, c.Param("id"), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, request)
}
