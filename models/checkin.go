package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttendanceState is the on-chain attendance progress of a wallet.
type AttendanceState uint8

const (
	AttendanceNone       AttendanceState = 0
	AttendanceCheckedIn  AttendanceState = 1
	AttendanceCheckedOut AttendanceState = 2
)

// Check-in directions recorded in the local log
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	ErrMalformedQR = errors.New("malformed QR payload")
	ErrExpiredPass = errors.New("pass has expired")
)

// QRPayload is the compact JSON an attendee shows at the door.
type QRPayload struct {
	Ref      string `json:"ref"`
	EventID  string `json:"e"`
	PassID   uint64 `json:"p"`
	Wallet   string `json:"u"`
	IssuedAt int64  `json:"t"` // unix ms
	PassHash string `json:"h,omitempty"`

	// Legacy is set for the long-form payloads. Those may lack an issue
	// time, and HashOnly ones carry a pass hash but no pass id.
	Legacy   bool `json:"-"`
	HashOnly bool `json:"-"`
}

// QRRef is the short human-readable reference printed under the code.
func QRRef(eventID string, passID uint64, wallet string) string {
	return prefix(eventID, 8) + strconv.FormatUint(passID, 10) + prefix(wallet, 8)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// NewQRPayload builds a payload issued at now.
func NewQRPayload(eventID string, passID uint64, wallet, passHash string, now time.Time) QRPayload {
	return QRPayload{
		Ref:      QRRef(eventID, passID, wallet),
		EventID:  eventID,
		PassID:   passID,
		Wallet:   wallet,
		IssuedAt: now.UnixMilli(),
		PassHash: passHash,
	}
}

// Encode returns the JSON the QR code carries.
func (q QRPayload) Encode() (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return string(b), nil
}

// Expired reports whether the pass is older than validity at now.
func (q QRPayload) Expired(now time.Time, validity time.Duration) bool {
	return now.Sub(time.UnixMilli(q.IssuedAt)) > validity
}

// legacyQR is the older long-form payload. Registration pages emitted
// {event_id, user_address, pass_hash, registered_at}; the organizer
// dashboard emitted {event_id, user_address, pass_id, pass_hash: null}.
type legacyQR struct {
	EventID      string          `json:"event_id"`
	UserAddress  string          `json:"user_address"`
	PassID       json.RawMessage `json:"pass_id"`
	PassHash     *string         `json:"pass_hash"`
	RegisteredAt int64           `json:"registered_at"`
}

// DecodeQRPayload parses either the compact payload or one of the legacy
// long forms.
func DecodeQRPayload(raw string) (QRPayload, error) {
	raw = strings.TrimSpace(raw)
	var q QRPayload
	if err := json.Unmarshal([]byte(raw), &q); err == nil && q.EventID != "" && q.Wallet != "" {
		if q.Ref == "" {
			q.Ref = QRRef(q.EventID, q.PassID, q.Wallet)
		}
		return q, nil
	}

	var l legacyQR
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return QRPayload{}, fmt.Errorf("%w: %v", ErrMalformedQR, err)
	}
	if l.EventID == "" || l.UserAddress == "" {
		return QRPayload{}, fmt.Errorf("%w: missing event or wallet", ErrMalformedQR)
	}
	q = QRPayload{
		EventID:  l.EventID,
		Wallet:   l.UserAddress,
		IssuedAt: l.RegisteredAt,
		Legacy:   true,
	}
	if l.PassHash != nil {
		q.PassHash = strings.TrimSpace(*l.PassHash)
	}

	switch id := strings.Trim(string(l.PassID), `"`); {
	case id == "" || id == "null":
		if q.PassHash == "" {
			return QRPayload{}, fmt.Errorf("%w: needs a pass id or a pass hash", ErrMalformedQR)
		}
		q.HashOnly = true
	default:
		passID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return QRPayload{}, fmt.Errorf("%w: pass id: %v", ErrMalformedQR, err)
		}
		q.PassID = passID
	}
	q.Ref = QRRef(q.EventID, q.PassID, q.Wallet)
	return q, nil
}

// Registration is a wallet's pass for an event
type Registration struct {
	Wallet       string `json:"wallet"`
	RegisteredAt uint64 `json:"registered_at"`
	PassID       uint64 `json:"pass_id"`
	PassHash     string `json:"pass_hash"`
	CheckedIn    bool   `json:"checked_in"`
}

// AttendanceRecord is a wallet's check-in state for one event
type AttendanceRecord struct {
	Wallet       string          `json:"wallet"`
	Registered   bool            `json:"registered"`
	State        AttendanceState `json:"state"`
	CheckInTime  uint64          `json:"check_in_time"`
	CheckOutTime uint64          `json:"check_out_time"`
}

// Duration is the time between check-in and check-out, or zero.
func (r AttendanceRecord) Duration() time.Duration {
	if r.State != AttendanceCheckedOut || r.CheckOutTime < r.CheckInTime {
		return 0
	}
	return time.Duration(r.CheckOutTime-r.CheckInTime) * time.Millisecond
}

// AttendanceStats are the per-event counters kept by the attendance registry
type AttendanceStats struct {
	CheckedIn  uint64 `json:"checked_in"`
	CheckedOut uint64 `json:"checked_out"`
	Total      uint64 `json:"total"`
}

// CheckinRecord is one row of the local check-in log
type CheckinRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	EventID   string    `json:"event_id" db:"event_id"`
	Wallet    string    `json:"wallet" db:"wallet"`
	PassID    uint64    `json:"pass_id" db:"pass_id"`
	PassHash  string    `json:"pass_hash" db:"pass_hash"`
	QRRef     string    `json:"qr_ref" db:"qr_ref"`
	Direction string    `json:"direction" db:"direction"`
	TxDigest  string    `json:"tx_digest" db:"tx_digest"`
	Organizer string    `json:"organizer" db:"organizer"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CheckInWithPassRequest builds a check-in from a pass id the organizer typed
type CheckInWithPassRequest struct {
	Wallet string `json:"wallet" binding:"required"`
	PassID uint64 `json:"pass_id"`
}

// CheckInWithQRRequest builds a check-in from a scanned QR payload
type CheckInWithQRRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// CheckOutRequest builds a check-out for a wallet
type CheckOutRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// ConfirmCheckinRequest reports a check-in the organizer's wallet submitted
type ConfirmCheckinRequest struct {
	QRData    string `json:"qr_data"`
	Wallet    string `json:"wallet"`
	PassID    uint64 `json:"pass_id"`
	Direction string `json:"direction" binding:"required"`
	TxDigest  string `json:"tx_digest" binding:"required"`
	Organizer string `json:"organizer" binding:"required"`
}

// VerifyPassRequest checks a scanned QR payload without building anything
type VerifyPassRequest struct {
	EventID string `json:"event_id" binding:"required"`
	QRData  string `json:"qr_data" binding:"required"`
}
