package contracts

import (
	"context"
	"fmt"

	"ariya-backend/models"
)

const ModuleIdentityAccess = "identity_access"

// passLifetimeMs is how long a pass stays valid after PassGenerated.
const passLifetimeMs = uint64(24 * 60 * 60 * 1000)

var registerFunctions = []string{"register_for_event", "register_for_free_event"}

// IdentityAccess builds registrations and reads passes back from events.
type IdentityAccess struct {
	client *Client
	d      Deployment
}

// RegisterForEvent builds a paid registration. The payment coin is split by
// the contract and the fee goes to the platform treasury.
func (m *IdentityAccess) RegisterForEvent(event, organizerSubscription, organizerProfile, payment Address) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleIdentityAccess, "register_for_event",
		Object(event),
		Object(m.d.RegistrationRegistry),
		ReadOnlyObject(organizerSubscription),
		ReadOnlyObject(organizerProfile),
		Object(m.d.PlatformTreasury),
		Object(payment),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// RegisterForFreeEvent builds a registration for an event without a fee.
func (m *IdentityAccess) RegisterForFreeEvent(event, organizerSubscription, organizerProfile Address) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleIdentityAccess, "register_for_free_event",
		Object(event),
		Object(m.d.RegistrationRegistry),
		ReadOnlyObject(organizerSubscription),
		ReadOnlyObject(organizerProfile),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// scanRegistrations visits every event emitted by paid and free
// registrations in the scan window, newest first per function.
func scanRegistrations(ctx context.Context, c *Client, d Deployment, visit func(SuiEvent) bool) error {
	for _, fn := range registerFunctions {
		stop := false
		err := c.ScanEvents(ctx, d.Package, ModuleIdentityAccess, fn, func(_ TransactionBlock, ev SuiEvent) bool {
			if !visit(ev) {
				stop = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// passFromEvent decodes a PassGenerated event for (event, wallet).
func passFromEvent(ev SuiEvent, event, wallet Address) (models.Registration, bool) {
	if !ev.IsType(ModuleIdentityAccess, "PassGenerated") {
		return models.Registration{}, false
	}
	f := ev.ParsedJSON
	evID, err := f.Address("event_id")
	if err != nil || evID != event {
		return models.Registration{}, false
	}
	w, err := f.Address("wallet")
	if err != nil || w != wallet {
		return models.Registration{}, false
	}
	passID, err := f.U64("pass_id")
	if err != nil {
		return models.Registration{}, false
	}
	reg := models.Registration{
		Wallet:   wallet.String(),
		PassID:   passID,
		PassHash: PassHashHex(passID, event, wallet),
	}
	if expires := f.U64Or("expires_at", 0); expires >= passLifetimeMs {
		reg.RegisteredAt = expires - passLifetimeMs
	}
	return reg, true
}

// FindPassInTransaction looks for the PassGenerated event of (event, wallet)
// in a confirmed transaction.
func FindPassInTransaction(tx *TransactionBlock, event, wallet Address) (models.Registration, bool) {
	if tx == nil {
		return models.Registration{}, false
	}
	for _, ev := range tx.Events {
		if reg, ok := passFromEvent(ev, event, wallet); ok {
			return reg, true
		}
	}
	return models.Registration{}, false
}

// GetRegistrationStatus finds the wallet's newest pass for the event in the
// scan window.
func (m *IdentityAccess) GetRegistrationStatus(ctx context.Context, event, wallet Address) Result[*models.Registration] {
	const what = "GetRegistrationStatus"
	var (
		reg models.Registration
		hit bool
	)
	err := scanRegistrations(ctx, m.client, m.d, func(ev SuiEvent) bool {
		reg, hit = passFromEvent(ev, event, wallet)
		return !hit
	})
	if err != nil {
		return failed[*models.Registration](nil, what, err)
	}
	if !hit {
		return notFound[*models.Registration](nil, what, nil)
	}
	return found(&reg)
}

// IsRegistered reports whether the wallet holds a pass for the event.
func (m *IdentityAccess) IsRegistered(ctx context.Context, event, wallet Address) Result[bool] {
	res := m.GetRegistrationStatus(ctx, event, wallet)
	switch res.Status {
	case StatusOK:
		return found(true)
	case StatusNotFound:
		return found(false)
	default:
		return Result[bool]{Status: res.Status, Err: res.Err}
	}
}

// IsEventOrganizer compares addr against the event's organizer field.
func (m *IdentityAccess) IsEventOrganizer(ctx context.Context, event, addr Address) Result[bool] {
	const what = "IsEventOrganizer"
	_, fields, err := m.client.GetMoveObject(ctx, event)
	if err != nil {
		return fromError(false, what, err)
	}
	organizer, err := fields.Address("organizer")
	if err != nil {
		return notFound(false, what, fmt.Errorf("event %s: %w", event, err))
	}
	return found(organizer == addr)
}
