package contracts

import (
	"context"
	"errors"
	"fmt"

	"ariya-backend/models"
)

const (
	ModuleAttendance = "attendance_verification"
	ModuleNFTMinting = "nft_minting"
)

// Attendance covers check-in, check-out and proof-of-attendance metadata.
type Attendance struct {
	client *Client
	d      Deployment
}

func (m *Attendance) checkIn(wallet, event Address, passHash [32]byte) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleAttendance, "check_in_attendee",
		AddressArg(wallet),
		ID(event),
		Bytes(passHash[:]),
		Object(m.d.AttendanceRegistry),
		Object(m.d.RegistrationRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// CheckInWithPassID builds a check-in from a pass id entered by hand.
func (m *Attendance) CheckInWithPassID(event, wallet Address, passID uint64) *Transaction {
	return m.checkIn(wallet, event, PassHash(passID, event, wallet))
}

// CheckInWithQR builds a check-in from a scanned payload. The hash is
// recomputed from the pass id; only a hash-only legacy payload sends its own
// hash, which the contract then checks against the registry.
func (m *Attendance) CheckInWithQR(q models.QRPayload) (*Transaction, error) {
	event, err := ParseAddress(q.EventID)
	if err != nil {
		return nil, fmt.Errorf("qr event id: %w", err)
	}
	wallet, err := ParseAddress(q.Wallet)
	if err != nil {
		return nil, fmt.Errorf("qr wallet: %w", err)
	}
	if q.HashOnly {
		hash, err := ParsePassHash(q.PassHash)
		if err != nil {
			return nil, err
		}
		return m.checkIn(wallet, event, hash), nil
	}
	return m.CheckInWithPassID(event, wallet, q.PassID), nil
}

// CheckOut builds a check-out for wallet.
func (m *Attendance) CheckOut(wallet, event Address) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleAttendance, "check_out_attendee",
		AddressArg(wallet),
		ID(event),
		Object(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// SetEventMetadata sets the proof-of-attendance NFT metadata for an event.
func (m *Attendance) SetEventMetadata(event Address, name, uri, location string, organizer Address) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleNFTMinting, "set_event_metadata",
		ID(event),
		String(name),
		String(uri),
		String(location),
		AddressArg(organizer),
		Object(m.d.NFTRegistry),
	)
	return tx
}

// GetAttendanceStatus reads (registered, state, check-in, check-out) for a
// wallet. An abort means the wallet has no record and comes back as an
// empty OK record.
func (m *Attendance) GetAttendanceStatus(ctx context.Context, event, wallet Address) Result[models.AttendanceRecord] {
	const what = "GetAttendanceStatus"
	empty := models.AttendanceRecord{Wallet: wallet.String()}
	values, err := m.client.View(ctx, m.d.Package, ModuleAttendance, "get_attendance_status",
		AddressArg(wallet), ID(event), ReadOnlyObject(m.d.AttendanceRegistry))
	if err != nil {
		var abort *AbortError
		if errors.As(err, &abort) {
			return found(empty)
		}
		return fromError(empty, what, err)
	}
	if len(values) < 4 {
		return notFound(empty, what, fmt.Errorf("expected 4 return values, got %d", len(values)))
	}

	rec := empty
	if rec.Registered, err = DecodeBool(values[0].Bytes); err != nil {
		return notFound(empty, what, err)
	}
	state, err := DecodeU8(values[1].Bytes)
	if err != nil {
		return notFound(empty, what, err)
	}
	rec.State = models.AttendanceState(state)
	if rec.CheckInTime, err = DecodeU64(values[2].Bytes); err != nil {
		return notFound(empty, what, err)
	}
	if rec.CheckOutTime, err = DecodeU64(values[3].Bytes); err != nil {
		return notFound(empty, what, err)
	}
	return found(rec)
}

// GetEventStats reads the check-in counters of an event.
func (m *Attendance) GetEventStats(ctx context.Context, event Address) Result[models.AttendanceStats] {
	const what = "GetEventStats"
	values, err := m.client.View(ctx, m.d.Package, ModuleAttendance, "get_event_stats",
		ID(event), ReadOnlyObject(m.d.AttendanceRegistry))
	if err != nil {
		return fromError(models.AttendanceStats{}, what, err)
	}
	if len(values) < 2 {
		return notFound(models.AttendanceStats{}, what, fmt.Errorf("expected at least 2 return values, got %d", len(values)))
	}
	var stats models.AttendanceStats
	if stats.CheckedIn, err = DecodeU64(values[0].Bytes); err != nil {
		return notFound(models.AttendanceStats{}, what, err)
	}
	if stats.CheckedOut, err = DecodeU64(values[1].Bytes); err != nil {
		return notFound(models.AttendanceStats{}, what, err)
	}
	stats.Total = stats.CheckedIn + stats.CheckedOut
	return found(stats)
}

// HasProofOfAttendance asks the NFT registry whether wallet holds the
// event's PoA.
func (m *Attendance) HasProofOfAttendance(ctx context.Context, event, wallet Address) Result[bool] {
	ok, err := m.client.ViewBool(ctx, m.d.Package, ModuleNFTMinting, "has_proof_of_attendance",
		AddressArg(wallet), ID(event), ReadOnlyObject(m.d.NFTRegistry))
	if err != nil {
		return fromError(false, "HasProofOfAttendance", err)
	}
	return found(ok)
}

// IsNFTMintingEnabled reports whether metadata was set for the event. The
// metadata view aborts when it was not.
func (m *Attendance) IsNFTMintingEnabled(ctx context.Context, event Address) Result[bool] {
	_, err := m.client.View(ctx, m.d.Package, ModuleNFTMinting, "get_event_metadata",
		ID(event), ReadOnlyObject(m.d.NFTRegistry))
	if err != nil {
		var abort *AbortError
		if errors.As(err, &abort) {
			return found(false)
		}
		return fromError(false, "IsNFTMintingEnabled", err)
	}
	return found(true)
}

// HasMintCapability looks for a MintPoACapability for the event in the
// owner's wallet.
func (m *Attendance) HasMintCapability(ctx context.Context, owner, event Address) Result[bool] {
	objs, err := m.client.OwnedObjectsOfType(ctx, owner, m.d.StructType(ModuleAttendance, "MintPoACapability"))
	if err != nil {
		return failed(false, "HasMintCapability", err)
	}
	for i := range objs {
		_, fields, ok := objs[i].MoveObject()
		if !ok {
			continue
		}
		if id, err := fields.Address("event_id"); err == nil && id == event {
			return found(true)
		}
	}
	return found(false)
}

// ListRegisteredWallets returns the wallets seen registering for the event
// in the scan window, newest first and without duplicates.
func (m *Attendance) ListRegisteredWallets(ctx context.Context, event Address) Result[[]string] {
	out := []string{}
	seen := make(map[Address]bool)
	err := scanRegistrations(ctx, m.client, m.d, func(ev SuiEvent) bool {
		if !ev.IsType(ModuleIdentityAccess, "UserRegistered") {
			return true
		}
		id, err := ev.ParsedJSON.Address("event_id")
		if err != nil || id != event {
			return true
		}
		w, err := ev.ParsedJSON.Address("wallet")
		if err != nil || seen[w] {
			return true
		}
		seen[w] = true
		out = append(out, w.String())
		return true
	})
	if err != nil {
		return failed([]string{}, "ListRegisteredWallets", err)
	}
	return found(out)
}
