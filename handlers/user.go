package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/models"
)

type UserHandler struct {
	events *contracts.EventManagement
}

func NewUserHandler(sdk *contracts.SDK) *UserHandler {
	return &UserHandler{events: sdk.Events}
}

// CreateProfile builds a create_profile call. The registry allows one
// profile per wallet; a duplicate aborts on chain.
func (h *UserHandler) CreateProfile(c *gin.Context) {
	var req models.CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	recipient, err := contracts.ParseAddress(req.Recipient)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Building create_profile for wallet: %s", recipient.Short(10))
	respondTransaction(c, h.events.CreateProfile(req, recipient))
}

// GetProfile looks up a wallet's profile through the registry.
func (h *UserHandler) GetProfile(c *gin.Context) {
	addr, ok := addressParam(c, "walletAddress")
	if !ok {
		return
	}
	respondResult(c, h.events.GetUserProfileByAddress(c.Request.Context(), addr))
}

func (h *UserHandler) GetProfileByID(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.events.GetUserProfile(c.Request.Context(), id))
}

// GetProfileStatus answers whether the wallet has an attendee and an
// organizer profile. An unreachable registry reads as false for both.
func (h *UserHandler) GetProfileStatus(c *gin.Context) {
	addr, ok := addressParam(c, "walletAddress")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	status := models.ProfileStatus{
		Address:             addr.String(),
		HasProfile:          h.events.HasProfile(ctx, addr).Value,
		HasOrganizerProfile: h.events.HasOrganizerProfile(ctx, addr).Value,
	}
	if status.HasProfile {
		status.ProfileID = h.events.GetUserProfileID(ctx, addr).Value
	}
	c.JSON(http.StatusOK, status)
}
