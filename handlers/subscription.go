package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
)

type SubscriptionHandler struct {
	subscriptions *contracts.Subscriptions
	now           func() time.Time
}

func NewSubscriptionHandler(sdk *contracts.SDK) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: sdk.Subscriptions, now: time.Now}
}

// GetConfig returns the plan prices.
func (h *SubscriptionHandler) GetConfig(c *gin.Context) {
	respondResult(c, h.subscriptions.GetSubscriptionConfig(c.Request.Context()))
}

// GetUserSubscription resolves the wallet's subscription through the
// registry and returns the object.
func (h *SubscriptionHandler) GetUserSubscription(c *gin.Context) {
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	idRes := h.subscriptions.GetUserSubscriptionID(ctx, wallet)
	if !idRes.OK() {
		respondResult(c, idRes)
		return
	}
	id, err := contracts.ParseAddress(idRes.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	respondResult(c, h.subscriptions.GetUserSubscription(ctx, id))
}

func (h *SubscriptionHandler) GetSubscriptionByID(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.subscriptions.GetUserSubscription(c.Request.Context(), id))
}

func (h *SubscriptionHandler) HasActiveSubscription(c *gin.Context) {
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	res := h.subscriptions.HasActiveSubscription(c.Request.Context(), wallet, uint64(h.now().UnixMilli()))
	if !res.OK() {
		respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet.String(), "active": res.Value})
}
