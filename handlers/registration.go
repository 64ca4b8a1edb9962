package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/flows"
	"ariya-backend/models"
)

// CoinSelector picks a payment coin. *contracts.Client implements it.
type CoinSelector interface {
	SelectCoin(ctx context.Context, owner contracts.Address, minBalance uint64) (contracts.Coin, error)
}

type RegistrationHandler struct {
	identity *contracts.IdentityAccess
	events   *contracts.EventManagement
	flow     *flows.RegistrationFlow
	coins    CoinSelector
}

func NewRegistrationHandler(sdk *contracts.SDK, flow *flows.RegistrationFlow, coins CoinSelector) *RegistrationHandler {
	return &RegistrationHandler{identity: sdk.Identity, events: sdk.Events, flow: flow, coins: coins}
}

// RegisterUser builds the registration for the wallet to sign. For a paid
// event without a payment coin, the wallet's first coin covering the fee is
// used.
func (h *RegistrationHandler) RegisterUser(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	addrs, err := contracts.ParseAddresses([]string{req.Wallet, req.OrganizerSubscriptionID, req.OrganizerProfileID})
	if err != nil {
		respondError(c, err)
		return
	}
	in := flows.RegisterInput{Event: event, Wallet: addrs[0], Subscription: addrs[1], Profile: addrs[2]}

	ctx := c.Request.Context()
	if req.PaymentCoinID != "" {
		coin, err := contracts.ParseAddress(req.PaymentCoinID)
		if err != nil {
			respondError(c, err)
			return
		}
		in.Coin = &coin
	} else if h.coins != nil {
		if fee := h.events.GetEventFeeAmount(ctx, event).Value; fee > 0 {
			coin, err := h.coins.SelectCoin(ctx, in.Wallet, fee)
			if err != nil {
				respondError(c, err)
				return
			}
			id, err := contracts.ParseAddress(coin.CoinObjectID)
			if err != nil {
				respondError(c, err)
				return
			}
			in.Coin = &id
		}
	}

	tx, fee, err := h.flow.Build(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	quote := models.FeeQuote{EventID: event.String(), FeeAmount: fee, Paid: fee > 0 && in.Coin != nil}
	if in.Coin != nil {
		quote.CoinID = in.Coin.String()
	}

	log.Printf("Building registration: event=%s, wallet=%s, paid=%t", event.Short(10), in.Wallet.Short(10), quote.Paid)
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "fee": quote})
}

// ConfirmRegistration waits for the wallet's registration to finalize and
// returns the pass as a QR payload.
func (h *RegistrationHandler) ConfirmRegistration(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.ConfirmRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}
	wallet, err := contracts.ParseAddress(req.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.flow.Confirm(c.Request.Context(), flows.RegisterInput{Event: event, Wallet: wallet}, req.TxDigest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUserRegistration returns the wallet's pass for the event.
func (h *RegistrationHandler) GetUserRegistration(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	respondResult(c, h.identity.GetRegistrationStatus(c.Request.Context(), event, wallet))
}

func (h *RegistrationHandler) IsEventOrganizer(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	res := h.identity.IsEventOrganizer(c.Request.Context(), event, wallet)
	if !res.OK() {
		respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": event.String(), "wallet": wallet.String(), "is_organizer": res.Value})
}
