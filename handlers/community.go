package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/models"
)

type CommunityHandler struct {
	communities *contracts.Communities
}

func NewCommunityHandler(sdk *contracts.SDK) *CommunityHandler {
	return &CommunityHandler{communities: sdk.Communities}
}

// CreateCommunity builds a create_community call gating the community on
// the event's NFTs.
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CommunityConfig
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.communities.CreateCommunity(event, req)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Building create_community: event=%s, name=%q", event.Short(10), req.Name)
	respondTransaction(c, tx)
}

func (h *CommunityHandler) GetEventCommunities(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.communities.GetEventCommunities(c.Request.Context(), event))
}

func (h *CommunityHandler) GetAllCommunities(c *gin.Context) {
	respondResult(c, h.communities.GetAllCommunities(c.Request.Context()))
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := addressParam(c, "communityId")
	if !ok {
		return
	}
	respondResult(c, h.communities.GetCommunityDetails(c.Request.Context(), id))
}

func (h *CommunityHandler) RequestAccess(c *gin.Context) {
	id, ok := addressParam(c, "communityId")
	if !ok {
		return
	}
	respondTransaction(c, h.communities.RequestCommunityAccess(id))
}

// CheckAccess answers whether the wallet is a member of the community.
func (h *CommunityHandler) CheckAccess(c *gin.Context) {
	id, ok := addressParam(c, "communityId")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	res := h.communities.CheckCommunityAccess(c.Request.Context(), id, wallet)
	if !res.OK() {
		respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community_id": id.String(), "wallet": wallet.String(), "has_access": res.Value})
}
