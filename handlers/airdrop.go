package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/models"
)

type AirdropHandler struct {
	airdrops   *contracts.Airdrops
	attendance *contracts.Attendance
}

func NewAirdropHandler(sdk *contracts.SDK) *AirdropHandler {
	return &AirdropHandler{airdrops: sdk.Airdrops, attendance: sdk.Attendance}
}

// CreateAirdrop builds a create_airdrop call funding the pool from the
// organizer's payment coin.
func (h *AirdropHandler) CreateAirdrop(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateAirdropRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := contracts.ParseAddress(req.PaymentCoinID)
	if err != nil {
		respondError(c, err)
		return
	}
	tx, err := h.airdrops.CreateAirdrop(event, req.AirdropConfig, payment)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Building create_airdrop: event=%s, name=%q, distribution=%d", event.Short(10), req.Name, req.DistributionType)
	respondTransaction(c, tx)
}

func (h *AirdropHandler) ClaimAirdrop(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	respondTransaction(c, h.airdrops.ClaimAirdrop(id))
}

func (h *AirdropHandler) BatchDistribute(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	var req models.BatchDistributeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipients, err := contracts.ParseAddresses(req.Recipients)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Building batch_distribute: airdrop=%s, recipients=%d", id.Short(10), len(recipients))
	respondTransaction(c, h.airdrops.BatchDistribute(id, recipients))
}

func (h *AirdropHandler) WithdrawUnclaimed(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	respondTransaction(c, h.airdrops.WithdrawUnclaimed(id))
}

func (h *AirdropHandler) GetAirdrop(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	respondResult(c, h.airdrops.GetAirdropDetails(c.Request.Context(), id))
}

// GetEventAirdrops lists the airdrop ids attached to an event.
func (h *AirdropHandler) GetEventAirdrops(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.airdrops.GetEventAirdrops(c.Request.Context(), event))
}

func (h *AirdropHandler) GetClaimStatus(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	respondResult(c, h.airdrops.GetClaimStatus(c.Request.Context(), id, wallet))
}

func (h *AirdropHandler) IsEligible(c *gin.Context) {
	id, ok := addressParam(c, "airdropId")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	res := h.airdrops.IsUserEligible(c.Request.Context(), id, wallet)
	if !res.OK() {
		respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{"airdrop_id": id.String(), "wallet": wallet.String(), "eligible": res.Value})
}

// GetUserClaims lists every claim the wallet has made.
func (h *AirdropHandler) GetUserClaims(c *gin.Context) {
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	respondResult(c, h.airdrops.GetUserClaims(c.Request.Context(), wallet))
}

// PreviewEligibility shows who would qualify under the given criteria
// before the organizer funds the pool.
func (h *AirdropHandler) PreviewEligibility(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.PreviewEligibilityRequest
	if !bindJSON(c, &req) {
		return
	}
	rated, err := contracts.ParseAddresses(req.RatedWallets)
	if err != nil {
		respondError(c, err)
		return
	}
	set := make(map[string]bool, len(rated))
	for _, w := range rated {
		set[w.String()] = true
	}
	respondResult(c, h.airdrops.PreviewEligibility(c.Request.Context(), h.attendance, event, req.Criteria, set))
}
