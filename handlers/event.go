package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/models"
)

type EventHandler struct {
	events     *contracts.EventManagement
	attendance *contracts.Attendance
}

func NewEventHandler(sdk *contracts.SDK) *EventHandler {
	return &EventHandler{events: sdk.Events, attendance: sdk.Attendance}
}

// CreateEvent builds a create_event call for the organizer's wallet.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := contracts.ParseAddress(req.OrganizerProfileID)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("Building create_event: name=%q, profile=%s", req.Name, profile.Short(10))
	respondTransaction(c, h.events.CreateEvent(req, profile))
}

// GetEvents lists events that are created or active.
func (h *EventHandler) GetEvents(c *gin.Context) {
	respondResult(c, h.events.GetActiveEvents(c.Request.Context()))
}

// GetEvent returns the event with its attendee count taken from
// registrations.
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.events.GetEventWithAttendeeCount(c.Request.Context(), id))
}

func (h *EventHandler) GetEventFee(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	fee := h.events.GetEventFeeAmount(c.Request.Context(), id)
	if !fee.OK() {
		respondResult(c, fee)
		return
	}
	c.JSON(http.StatusOK, models.FeeQuote{EventID: id.String(), FeeAmount: fee.Value, Paid: fee.Value > 0})
}

func (h *EventHandler) ActivateEvent(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondTransaction(c, h.events.ActivateEvent(id))
}

func (h *EventHandler) CompleteEvent(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CompleteEventRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := contracts.ParseAddress(req.OrganizerProfileID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTransaction(c, h.events.CompleteEvent(id, profile))
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondTransaction(c, h.events.DeleteEvent(id))
}

// SetEventMetadata builds the proof-of-attendance NFT metadata call that
// enables minting for the event.
func (h *EventHandler) SetEventMetadata(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.SetEventMetadataRequest
	if !bindJSON(c, &req) {
		return
	}
	organizer, err := contracts.ParseAddress(req.Organizer)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTransaction(c, h.attendance.SetEventMetadata(id, req.Name, req.URI, req.Location, organizer))
}

func (h *EventHandler) GetEventStats(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.attendance.GetEventStats(c.Request.Context(), id))
}

// GetEventAttendees lists the wallets registered for the event.
func (h *EventHandler) GetEventAttendees(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	wallets := h.attendance.ListRegisteredWallets(c.Request.Context(), id)
	if !wallets.OK() {
		respondResult(c, wallets)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendees": wallets.Value, "count": len(wallets.Value)})
}

func (h *EventHandler) GetNFTStatus(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	enabled := h.attendance.IsNFTMintingEnabled(c.Request.Context(), id)
	if !enabled.OK() {
		respondResult(c, enabled)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id.String(), "minting_enabled": enabled.Value})
}

// GetOrganizers lists every organizer profile created in the scan window.
func (h *EventHandler) GetOrganizers(c *gin.Context) {
	respondResult(c, h.events.GetAllOrganizers(c.Request.Context()))
}

func (h *EventHandler) CreateOrganizerProfile(c *gin.Context) {
	var req models.CreateOrganizerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	recipient, err := contracts.ParseAddress(req.Recipient)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTransaction(c, h.events.CreateOrganizerProfile(req.Name, req.Bio, recipient))
}

func (h *EventHandler) GetOrganizerProfile(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	respondResult(c, h.events.GetOrganizerProfile(c.Request.Context(), id))
}

// GetOrganizerCap returns the capability held by an organizer wallet.
func (h *EventHandler) GetOrganizerCap(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	respondResult(c, h.events.GetOrganizerCap(c.Request.Context(), addr))
}

func (h *EventHandler) GetOrganizerEvents(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	respondResult(c, h.events.GetEventsByOrganizer(c.Request.Context(), addr))
}
