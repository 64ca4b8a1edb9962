package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/flows"
	"ariya-backend/models"
)

var errNoCheckinLog = errors.New("check-in log is not configured")

// CheckinStore reads the off-chain check-in log. storage.CheckinRepository
// implements it.
type CheckinStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.CheckinRecord, error)
	ListByWallet(ctx context.Context, wallet string) ([]models.CheckinRecord, error)
	Latest(ctx context.Context, eventID, wallet string) (*models.CheckinRecord, error)
	CountByDirection(ctx context.Context, eventID string) (in, out int, err error)
}

type CheckinHandler struct {
	attendance *contracts.Attendance
	flow       *flows.CheckInFlow
	store      CheckinStore
}

// NewCheckinHandler creates the handler. store may be nil when the service
// runs without a database; the log endpoints then answer 503.
func NewCheckinHandler(sdk *contracts.SDK, flow *flows.CheckInFlow, store CheckinStore) *CheckinHandler {
	return &CheckinHandler{attendance: sdk.Attendance, flow: flow, store: store}
}

// CheckInWithQR validates a scanned pass and builds the check-in for the
// organizer to sign. Forged and expired passes are rejected before anything
// is built.
func (h *CheckinHandler) CheckInWithQR(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CheckInWithQRRequest
	if !bindJSON(c, &req) {
		return
	}
	q, wallet, err := validateQRData(req.QRData, event)
	if err != nil {
		respondError(c, err)
		return
	}
	tx, err := h.attendance.CheckInWithQR(q)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("Building check-in from QR: event=%s, wallet=%s, pass=%d", event.Short(10), wallet.Short(10), q.PassID)
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "wallet": wallet.String(), "pass_id": q.PassID})
}

// CheckInWithPass builds a check-in from a pass id typed in by the organizer.
func (h *CheckinHandler) CheckInWithPass(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CheckInWithPassRequest
	if !bindJSON(c, &req) {
		return
	}
	wallet, err := contracts.ParseAddress(req.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Building check-in from pass id: event=%s, wallet=%s, pass=%d", event.Short(10), wallet.Short(10), req.PassID)
	respondTransaction(c, h.attendance.CheckInWithPassID(event, wallet, req.PassID))
}

func (h *CheckinHandler) CheckOut(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.CheckOutRequest
	if !bindJSON(c, &req) {
		return
	}
	wallet, err := contracts.ParseAddress(req.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTransaction(c, h.attendance.CheckOut(wallet, event))
}

// ConfirmCheckin waits for a submitted check-in or check-out to finalize and
// records it in the log.
func (h *CheckinHandler) ConfirmCheckin(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req models.ConfirmCheckinRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	signer := flows.SubmittedDigest(req.TxDigest)
	var (
		rec *models.CheckinRecord
		err error
	)
	switch req.Direction {
	case models.DirectionIn:
		rec, err = h.flow.CheckIn(ctx, flows.CheckInInput{
			Event:     event,
			QRData:    req.QRData,
			Wallet:    req.Wallet,
			PassID:    req.PassID,
			Organizer: req.Organizer,
		}, signer)
	case models.DirectionOut:
		rec, err = h.flow.CheckOut(ctx, flows.CheckOutInput{
			Event:     event,
			QRData:    req.QRData,
			Wallet:    req.Wallet,
			Organizer: req.Organizer,
		}, signer)
	default:
		err = fmt.Errorf("%w: direction must be %q or %q", contracts.ErrInvalidArgument, models.DirectionIn, models.DirectionOut)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetCheckins lists the event's log entries, newest first, with counts per
// direction.
func (h *CheckinHandler) GetCheckins(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	if h.store == nil {
		respondError(c, errNoCheckinLog)
		return
	}
	ctx := c.Request.Context()
	records, err := h.store.ListByEvent(ctx, event.String())
	if err != nil {
		respondError(c, err)
		return
	}
	in, out, err := h.store.CountByDirection(ctx, event.String())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkins": records, "checked_in": in, "checked_out": out})
}

func (h *CheckinHandler) GetWalletCheckins(c *gin.Context) {
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	if h.store == nil {
		respondError(c, errNoCheckinLog)
		return
	}
	records, err := h.store.ListByWallet(c.Request.Context(), wallet.String())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetAttendance returns the on-chain attendance record, plus the latest log
// entry when a log is configured.
func (h *CheckinHandler) GetAttendance(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rec := h.attendance.GetAttendanceStatus(ctx, event, wallet)
	if !rec.OK() {
		respondResult(c, rec)
		return
	}

	body := gin.H{"attendance": rec.Value, "duration_seconds": int64(rec.Value.Duration() / time.Second)}
	if h.store != nil {
		latest, err := h.store.Latest(ctx, event.String(), wallet.String())
		if err != nil {
			log.Printf("Warning: failed to read latest check-in of %s: %v", wallet.Short(10), err)
		} else if latest != nil {
			body["last_checkin"] = latest
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *CheckinHandler) GetProofOfAttendance(c *gin.Context) {
	event, ok := addressParam(c, "id")
	if !ok {
		return
	}
	wallet, ok := addressParam(c, "wallet")
	if !ok {
		return
	}
	res := h.attendance.HasProofOfAttendance(c.Request.Context(), event, wallet)
	if !res.OK() {
		respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": event.String(), "wallet": wallet.String(), "has_proof": res.Value})
}

// VerifyPass runs the door checks on a QR payload without building a
// transaction.
func (h *CheckinHandler) VerifyPass(c *gin.Context) {
	var req models.VerifyPassRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := contracts.ParseAddress(req.EventID)
	if err != nil {
		respondError(c, err)
		return
	}
	q, wallet, err := validateQRData(req.QRData, event)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"event_id":  event.String(),
		"wallet":    wallet.String(),
		"pass_id":   q.PassID,
		"issued_at": q.IssuedAt,
	})
}

func validateQRData(raw string, event contracts.Address) (models.QRPayload, contracts.Address, error) {
	q, err := models.DecodeQRPayload(raw)
	if err != nil {
		return models.QRPayload{}, contracts.Address{}, err
	}
	wallet, err := flows.ValidateQR(q, event, time.Now())
	if err != nil {
		return models.QRPayload{}, contracts.Address{}, err
	}
	return q, wallet, nil
}
