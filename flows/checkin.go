package flows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ariya-backend/config"
	"ariya-backend/contracts"
	"ariya-backend/metrics"
	"ariya-backend/models"
)

const (
	checkInFlow  = "check_in"
	checkOutFlow = "check_out"
)

// CheckinLog stores confirmed check-ins off chain. storage.CheckinRepository
// implements it.
type CheckinLog interface {
	Record(ctx context.Context, rec models.CheckinRecord) (models.CheckinRecord, error)
}

// CheckInInput is a scanned QR payload, or a wallet and pass id typed in by
// the organizer when QRData is empty.
type CheckInInput struct {
	Event     contracts.Address
	QRData    string
	Wallet    string
	PassID    uint64
	Organizer string
}

// CheckOutInput names the wallet directly or through its QR payload.
type CheckOutInput struct {
	Event     contracts.Address
	QRData    string
	Wallet    string
	Organizer string
}

// CheckInFlow validates passes at the door and records attendance on chain.
type CheckInFlow struct {
	attendance *contracts.Attendance
	chain      Confirmer
	log        CheckinLog
	settings
}

// NewCheckInFlow creates the flow. checkins may be nil, in which case
// nothing is recorded off chain.
func NewCheckInFlow(attendance *contracts.Attendance, chain Confirmer, checkins CheckinLog, opts ...Option) *CheckInFlow {
	return &CheckInFlow{
		attendance: attendance,
		chain:      chain,
		log:        checkins,
		settings:   newSettings(opts),
	}
}

// ValidateQR checks a payload against the event being scanned: it must name
// that event, carry a hash matching the recomputed one when it has a hash at
// all, and be younger than the pass validity. Legacy payloads without an
// issue time skip the age check; the contract still rejects expired passes.
func ValidateQR(q models.QRPayload, event contracts.Address, now time.Time) (contracts.Address, error) {
	qrEvent, err := contracts.ParseAddress(q.EventID)
	if err != nil {
		return contracts.Address{}, fmt.Errorf("%w: event id: %v", models.ErrMalformedQR, err)
	}
	if qrEvent != event {
		return contracts.Address{}, fmt.Errorf("%w: %s", ErrEventMismatch, qrEvent)
	}
	wallet, err := contracts.ParseAddress(q.Wallet)
	if err != nil {
		return contracts.Address{}, fmt.Errorf("%w: wallet: %v", models.ErrMalformedQR, err)
	}
	switch {
	case q.HashOnly:
		if _, err := contracts.ParsePassHash(q.PassHash); err != nil {
			return contracts.Address{}, err
		}
	case q.PassHash != "":
		if err := contracts.VerifyPassHash(q.PassID, event, wallet, q.PassHash); err != nil {
			return contracts.Address{}, err
		}
	}
	if q.IssuedAt <= 0 {
		if q.Legacy {
			return wallet, nil
		}
		return contracts.Address{}, fmt.Errorf("%w: missing issue time", models.ErrMalformedQR)
	}
	if q.Expired(now, config.PassValidity) {
		return contracts.Address{}, models.ErrExpiredPass
	}
	return wallet, nil
}

// qrPassHash is the hash sent on chain for q.
func qrPassHash(q models.QRPayload, event, wallet contracts.Address) string {
	if q.HashOnly {
		if h, err := contracts.ParsePassHash(q.PassHash); err == nil {
			return fmt.Sprintf("0x%x", h)
		}
	}
	return contracts.PassHashHex(q.PassID, event, wallet)
}

func (f *CheckInFlow) decode(raw string, event contracts.Address) (models.QRPayload, contracts.Address, error) {
	q, err := models.DecodeQRPayload(raw)
	if err != nil {
		return models.QRPayload{}, contracts.Address{}, err
	}
	wallet, err := ValidateQR(q, event, f.now())
	if err != nil {
		return models.QRPayload{}, contracts.Address{}, err
	}
	return q, wallet, nil
}

// CheckIn validates the pass, submits the check-in and records it.
func (f *CheckInFlow) CheckIn(ctx context.Context, in CheckInInput, signer Signer) (*models.CheckinRecord, error) {
	var (
		q      models.QRPayload
		wallet contracts.Address
		err    error
	)
	if in.QRData != "" {
		q, wallet, err = f.decode(in.QRData, in.Event)
	} else {
		wallet, err = contracts.ParseAddress(in.Wallet)
		if err == nil {
			q = models.NewQRPayload(in.Event.String(), in.PassID, wallet.String(), "", f.now())
		}
	}
	if err != nil {
		return nil, stepFailed(checkInFlow, StepValidate, err)
	}
	stepDone(checkInFlow, StepValidate)

	tx, err := f.attendance.CheckInWithQR(q)
	if err != nil {
		return nil, stepFailed(checkInFlow, StepBuild, err)
	}
	stepDone(checkInFlow, StepBuild)

	digest, _, err := submit(ctx, checkInFlow, signer, f.chain, tx)
	if err != nil {
		return nil, err
	}

	rec := f.record(ctx, models.CheckinRecord{
		EventID:   in.Event.String(),
		Wallet:    wallet.String(),
		PassID:    q.PassID,
		PassHash:  qrPassHash(q, in.Event, wallet),
		QRRef:     q.Ref,
		Direction: models.DirectionIn,
		TxDigest:  digest,
		Organizer: in.Organizer,
	})
	log.Printf("Checked in wallet %s at event %s (tx %s)", wallet.Short(10), in.Event.Short(10), digest)
	return rec, nil
}

// CheckOut submits the check-out and records it. A QR payload, when given,
// goes through the same validation as at check-in.
func (f *CheckInFlow) CheckOut(ctx context.Context, in CheckOutInput, signer Signer) (*models.CheckinRecord, error) {
	var (
		q      models.QRPayload
		wallet contracts.Address
		err    error
	)
	if in.QRData != "" {
		q, wallet, err = f.decode(in.QRData, in.Event)
	} else {
		wallet, err = contracts.ParseAddress(in.Wallet)
	}
	if err != nil {
		return nil, stepFailed(checkOutFlow, StepValidate, err)
	}
	stepDone(checkOutFlow, StepValidate)

	tx := f.attendance.CheckOut(wallet, in.Event)
	stepDone(checkOutFlow, StepBuild)

	digest, _, err := submit(ctx, checkOutFlow, signer, f.chain, tx)
	if err != nil {
		return nil, err
	}

	rec := models.CheckinRecord{
		EventID:   in.Event.String(),
		Wallet:    wallet.String(),
		QRRef:     q.Ref,
		Direction: models.DirectionOut,
		TxDigest:  digest,
		Organizer: in.Organizer,
	}
	if q.EventID != "" {
		rec.PassID = q.PassID
		rec.PassHash = qrPassHash(q, in.Event, wallet)
	}
	log.Printf("Checked out wallet %s at event %s (tx %s)", wallet.Short(10), in.Event.Short(10), digest)
	return f.record(ctx, rec), nil
}

// record stamps and stores rec. The chain is the source of truth, so a
// failed write is only logged.
func (f *CheckInFlow) record(ctx context.Context, rec models.CheckinRecord) *models.CheckinRecord {
	rec.ID = uuid.New()
	rec.CreatedAt = f.now().UTC()
	if f.log == nil {
		return &rec
	}
	flow := checkInFlow
	if rec.Direction == models.DirectionOut {
		flow = checkOutFlow
	}
	stored, err := f.log.Record(ctx, rec)
	if err != nil {
		metrics.FlowSteps.WithLabelValues(flow, string(StepRecord), "error").Inc()
		log.Printf("Warning: failed to record check-%s of %s for event %s: %v", rec.Direction, rec.Wallet, rec.EventID, err)
		return &rec
	}
	stepDone(flow, StepRecord)
	metrics.CheckinsRecorded.WithLabelValues(rec.Direction).Inc()
	return &stored
}
