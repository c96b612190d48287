package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/models"
	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// UserHandler exposes profile and partner binding endpoints.
type UserHandler struct {
	users   *services.UserService
	pairing *services.PairingService
}

func NewUserHandler(users *services.UserService, pairing *services.PairingService) *UserHandler {
	return &UserHandler{users: users, pairing: pairing}
}

// partnerInfo is the subset of a partner's account shared with the other half
// of the pair.
type partnerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

func partnerPayload(partner *models.User) *partnerInfo {
	if partner == nil {
		return nil
	}
	return &partnerInfo{
		ID:       partner.ID,
		Username: partner.Username,
		Score:    partner.Score,
	}
}

// GET /api/users/profile
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	partner, err := h.users.Partner(requestContext(c), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":    user,
		"partner": partnerPayload(partner),
	})
}

type bindPartnerRequest struct {
	InvitationCode string `json:"invitation_code" validate:"required"`
}

// POST /api/users/bind
func (h *UserHandler) BindPartner(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req bindPartnerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, partner, err := h.pairing.Bind(requestContext(c), userID, req.InvitationCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":    user,
		"partner": partnerPayload(partner),
	})
}
