package contracts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ariya-backend/models"
)

const (
	ModuleEventManagement = "event_management"

	// profileGasBudget is what profile creation needs with the cap transfer.
	profileGasBudget = 10_000_000
)

// EventManagement builds event and profile calls and reads them back.
type EventManagement struct {
	client *Client
	d      Deployment
}

func (m *EventManagement) call(tx *Transaction, function string, args ...Arg) Arg {
	return tx.MoveCall(m.d.Package, ModuleEventManagement, function, args...)
}

// CreateOrganizerProfile mints a profile and sends the OrganizerCap to recipient.
func (m *EventManagement) CreateOrganizerProfile(name, bio string, recipient Address) *Transaction {
	tx := NewTransaction()
	organizerCap := m.call(tx, "create_organizer_profile",
		String(name),
		String(bio),
		ReadOnlyObject(m.d.Clock),
	)
	tx.Transfer([]Arg{organizerCap}, recipient)
	tx.SetGasBudget(profileGasBudget)
	return tx
}

// CreateEvent registers a new event under organizerProfile.
func (m *EventManagement) CreateEvent(in models.CreateEventRequest, organizerProfile Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "create_event",
		String(in.Name),
		String(in.Description),
		String(in.Location),
		U64(in.StartTime),
		U64(in.EndTime),
		U64(in.Capacity),
		U64(in.FeeAmount),
		U64(in.MinAttendees),
		U64(in.MinCompletionRate),
		U64(in.MinAvgRating),
		String(in.MetadataURI),
		ReadOnlyObject(m.d.Clock),
		Object(m.d.EventRegistry),
		Object(organizerProfile),
	)
	return tx
}

// ActivateEvent opens an event for registration.
func (m *EventManagement) ActivateEvent(event Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "activate_event",
		Object(event),
		ReadOnlyObject(m.d.Clock),
		Object(m.d.EventRegistry),
	)
	return tx
}

// CompleteEvent closes an event after its end time and credits the profile.
func (m *EventManagement) CompleteEvent(event, organizerProfile Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "complete_event",
		Object(event),
		ReadOnlyObject(m.d.Clock),
		Object(m.d.EventRegistry),
		Object(organizerProfile),
	)
	return tx
}

// DeleteEvent removes an event that never went live.
func (m *EventManagement) DeleteEvent(event Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "delete_event",
		Object(event),
		Object(m.d.EventRegistry),
	)
	return tx
}

// CreateProfile mints an attendee profile and sends its cap to recipient.
func (m *EventManagement) CreateProfile(in models.CreateProfileRequest, recipient Address) *Transaction {
	tx := NewTransaction()
	profileCap := m.call(tx, "create_profile",
		String(in.Name),
		String(in.Bio),
		String(in.PhotoURL),
		String(in.TelegramUsername),
		String(in.XUsername),
		ReadOnlyObject(m.d.Clock),
		Object(m.d.ProfileRegistry),
	)
	tx.Transfer([]Arg{profileCap}, recipient)
	tx.SetGasBudget(profileGasBudget)
	return tx
}

func decodeEvent(id Address, f MoveFields) (models.Event, error) {
	var (
		ev  = models.Event{ID: id.String()}
		err error
	)
	if ev.Name, err = f.String("name"); err != nil {
		return ev, err
	}
	if ev.StartTime, err = f.U64("start_time"); err != nil {
		return ev, err
	}
	state, err := f.U64("state")
	if err != nil {
		return ev, err
	}
	organizer, err := f.Address("organizer")
	if err != nil {
		return ev, err
	}
	ev.State = models.EventState(state)
	ev.Organizer = organizer.String()
	ev.Description = f.StringOr("description", "")
	ev.Location = f.StringOr("location", "")
	ev.EndTime = f.U64Or("end_time", 0)
	ev.Capacity = f.U64Or("capacity", 0)
	ev.CurrentAttendees = f.U64Or("current_attendees", 0)
	ev.CreatedAt = f.U64Or("created_at", 0)
	ev.MetadataURI = f.StringOr("metadata_uri", "")
	ev.FeeAmount = f.U64Or("fee_amount", 0)

	ev.SponsorConditions.CustomBenchmarks = []models.CustomBenchmark{}
	if sc, err := f.Struct("sponsor_conditions"); err == nil {
		ev.SponsorConditions.MinAttendees = sc.U64Or("min_attendees", 0)
		ev.SponsorConditions.MinCompletionRate = sc.U64Or("min_completion_rate", 0)
		ev.SponsorConditions.MinAvgRating = sc.U64Or("min_avg_rating", 0)
		if benches, err := sc.Structs("custom_benchmarks"); err == nil {
			for _, b := range benches {
				ev.SponsorConditions.CustomBenchmarks = append(ev.SponsorConditions.CustomBenchmarks, models.CustomBenchmark{
					Description:  b.StringOr("description", ""),
					TargetValue:  b.U64Or("target_value", 0),
					CurrentValue: b.U64Or("current_value", 0),
				})
			}
		}
	}
	return ev, nil
}

func decodeOrganizerProfile(id Address, f MoveFields) (models.OrganizerProfile, error) {
	addr, err := f.Address("address")
	if err != nil {
		return models.OrganizerProfile{}, err
	}
	name, err := f.String("name")
	if err != nil {
		return models.OrganizerProfile{}, err
	}
	return models.OrganizerProfile{
		ID:                   id.String(),
		Address:              addr.String(),
		Name:                 name,
		Bio:                  f.StringOr("bio", ""),
		TotalEvents:          f.U64Or("total_events", 0),
		SuccessfulEvents:     f.U64Or("successful_events", 0),
		TotalAttendeesServed: f.U64Or("total_attendees_served", 0),
		AvgRating:            f.U64Or("avg_rating", 0),
		CreatedAt:            f.U64Or("created_at", 0),
	}, nil
}

func decodeUserProfile(id Address, f MoveFields) (models.UserProfile, error) {
	addr, err := f.Address("address")
	if err != nil {
		return models.UserProfile{}, err
	}
	return models.UserProfile{
		ID:               id.String(),
		Address:          addr.String(),
		Name:             f.StringOr("name", ""),
		Bio:              f.StringOr("bio", ""),
		PhotoURL:         f.StringOr("photo_url", ""),
		TelegramUsername: f.StringOr("telegram_username", ""),
		XUsername:        f.StringOr("x_username", ""),
		CreatedAt:        f.U64Or("created_at", 0),
	}, nil
}

// GetEvent reads an event object.
func (m *EventManagement) GetEvent(ctx context.Context, id Address) Result[*models.Event] {
	const what = "GetEvent"
	_, fields, err := m.client.GetMoveObject(ctx, id)
	if err != nil {
		return fromError[*models.Event](nil, what, err)
	}
	ev, err := decodeEvent(id, fields)
	if err != nil {
		return notFound[*models.Event](nil, what, fmt.Errorf("event %s: %w", id, err))
	}
	return found(&ev)
}

// GetEventWithAttendeeCount replaces the stored attendee counter with the
// number of registrations seen in the scan window.
func (m *EventManagement) GetEventWithAttendeeCount(ctx context.Context, id Address) Result[*models.Event] {
	res := m.GetEvent(ctx, id)
	if !res.OK() {
		return res
	}
	count := m.GetEventAttendeeCount(ctx, id)
	if !count.OK() {
		return Result[*models.Event]{Status: count.Status, Err: count.Err}
	}
	res.Value.CurrentAttendees = count.Value
	return res
}

// GetEventFeeAmount asks the contract for the registration fee in MIST.
func (m *EventManagement) GetEventFeeAmount(ctx context.Context, event Address) Result[uint64] {
	fee, err := m.client.ViewU64(ctx, m.d.Package, ModuleEventManagement, "get_event_fee_amount", ReadOnlyObject(event))
	if err != nil {
		return fromError(uint64(0), "GetEventFeeAmount", err)
	}
	return found(fee)
}

// GetOrganizerProfile reads an organizer profile object.
func (m *EventManagement) GetOrganizerProfile(ctx context.Context, id Address) Result[*models.OrganizerProfile] {
	const what = "GetOrganizerProfile"
	_, fields, err := m.client.GetMoveObject(ctx, id)
	if err != nil {
		return fromError[*models.OrganizerProfile](nil, what, err)
	}
	p, err := decodeOrganizerProfile(id, fields)
	if err != nil {
		return notFound[*models.OrganizerProfile](nil, what, fmt.Errorf("profile %s: %w", id, err))
	}
	return found(&p)
}

// scanCreatedEvents resolves every EventCreated in the scan window that
// keep accepts. Events whose objects are gone are skipped.
func (m *EventManagement) scanCreatedEvents(ctx context.Context, keep func(organizer Address) bool) ([]models.Event, error) {
	var ids []Address
	seen := make(map[Address]bool)
	err := m.client.ScanEvents(ctx, m.d.Package, ModuleEventManagement, "create_event", func(_ TransactionBlock, ev SuiEvent) bool {
		if !ev.IsType(ModuleEventManagement, "EventCreated") {
			return true
		}
		id, err := ev.ParsedJSON.Address("event_id")
		if err != nil || seen[id] {
			return true
		}
		if keep != nil {
			organizer, err := ev.ParsedJSON.Address("organizer")
			if err != nil || !keep(organizer) {
				return true
			}
		}
		seen[id] = true
		ids = append(ids, id)
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		res := m.GetEvent(ctx, id)
		switch res.Status {
		case StatusOK:
			out = append(out, *res.Value)
		case StatusTransportError:
			return nil, res.Err
		}
	}
	return out, nil
}

func eventInfo(ev models.Event) models.EventInfo {
	return models.EventInfo{
		ID:        ev.ID,
		Name:      ev.Name,
		Organizer: ev.Organizer,
		StartTime: ev.StartTime,
		State:     ev.State,
	}
}

// GetEventsByOrganizer lists recent events created by organizer.
func (m *EventManagement) GetEventsByOrganizer(ctx context.Context, organizer Address) Result[[]models.EventInfo] {
	events, err := m.scanCreatedEvents(ctx, func(a Address) bool { return a == organizer })
	if err != nil {
		return failed([]models.EventInfo{}, "GetEventsByOrganizer", err)
	}
	out := make([]models.EventInfo, 0, len(events))
	for _, ev := range events {
		out = append(out, eventInfo(ev))
	}
	return found(out)
}

// GetActiveEvents lists recent events still in Created or Active state.
func (m *EventManagement) GetActiveEvents(ctx context.Context) Result[[]models.EventInfo] {
	events, err := m.scanCreatedEvents(ctx, nil)
	if err != nil {
		return failed([]models.EventInfo{}, "GetActiveEvents", err)
	}
	out := make([]models.EventInfo, 0, len(events))
	for _, ev := range events {
		if ev.State.Open() {
			out = append(out, eventInfo(ev))
		}
	}
	return found(out)
}

// GetAllOrganizers lists organizer profiles created in the scan window.
func (m *EventManagement) GetAllOrganizers(ctx context.Context) Result[[]models.OrganizerProfile] {
	const what = "GetAllOrganizers"
	var ids []Address
	err := m.client.ScanFunction(ctx, m.d.Package, ModuleEventManagement, "create_organizer_profile",
		TransactionBlockOptions{ShowObjectChanges: true},
		func(tx TransactionBlock) bool {
			for _, ch := range tx.ObjectChanges {
				if ch.Type != "created" || !strings.HasSuffix(ch.ObjectType, "::"+ModuleEventManagement+"::OrganizerProfile") {
					continue
				}
				if id, err := ParseAddress(ch.ObjectID); err == nil {
					ids = append(ids, id)
				}
			}
			return true
		})
	if err != nil {
		return failed([]models.OrganizerProfile{}, what, err)
	}

	out := make([]models.OrganizerProfile, 0, len(ids))
	for _, id := range ids {
		res := m.GetOrganizerProfile(ctx, id)
		switch res.Status {
		case StatusOK:
			out = append(out, *res.Value)
		case StatusTransportError:
			return failed([]models.OrganizerProfile{}, what, res.Err)
		}
	}
	return found(out)
}

// GetOrganizerCap returns the first OrganizerCap owned by addr.
func (m *EventManagement) GetOrganizerCap(ctx context.Context, addr Address) Result[*models.OrganizerCap] {
	const what = "GetOrganizerCap"
	caps, err := m.organizerCaps(ctx, addr)
	if err != nil {
		return failed[*models.OrganizerCap](nil, what, err)
	}
	if len(caps) == 0 {
		return notFound[*models.OrganizerCap](nil, what, nil)
	}
	return found(&caps[0])
}

func (m *EventManagement) organizerCaps(ctx context.Context, addr Address) ([]models.OrganizerCap, error) {
	objs, err := m.client.OwnedObjectsOfType(ctx, addr, m.d.StructType(ModuleEventManagement, "OrganizerCap"))
	if err != nil {
		return nil, err
	}
	out := []models.OrganizerCap{}
	for i := range objs {
		data, fields, ok := objs[i].MoveObject()
		if !ok {
			continue
		}
		profileID, err := fields.Address("profile_id")
		if err != nil {
			log.Printf("GetOrganizerCap: skipping cap %s: %v", data.ObjectID, err)
			continue
		}
		out = append(out, models.OrganizerCap{ID: data.ObjectID, ProfileID: profileID.String()})
	}
	return out, nil
}

// HasOrganizerProfile follows each OrganizerCap in addr's wallet to its
// profile and checks that the profile names addr. This is a UX shortcut;
// the contract enforces ownership itself.
func (m *EventManagement) HasOrganizerProfile(ctx context.Context, addr Address) Result[bool] {
	const what = "HasOrganizerProfile"
	caps, err := m.organizerCaps(ctx, addr)
	if err != nil {
		return failed(false, what, err)
	}
	for _, c := range caps {
		profileID, err := ParseAddress(c.ProfileID)
		if err != nil {
			continue
		}
		res := m.GetOrganizerProfile(ctx, profileID)
		if res.Status == StatusTransportError {
			return failed(false, what, res.Err)
		}
		if res.OK() && SameAddress(res.Value.Address, addr.String()) {
			return found(true)
		}
	}
	return found(false)
}

// HasProfile asks the profile registry whether addr has a profile.
func (m *EventManagement) HasProfile(ctx context.Context, addr Address) Result[bool] {
	ok, err := m.client.ViewBool(ctx, m.d.Package, ModuleEventManagement, "has_profile",
		ReadOnlyObject(m.d.ProfileRegistry), AddressArg(addr))
	if err != nil {
		return fromError(false, "HasProfile", err)
	}
	return found(ok)
}

// GetUserProfileID looks up addr's profile id in the registry. The view
// returns either an ID or an Option<ID>.
func (m *EventManagement) GetUserProfileID(ctx context.Context, addr Address) Result[string] {
	const what = "GetUserProfileID"
	values, err := m.client.View(ctx, m.d.Package, ModuleEventManagement, "get_user_profile_id",
		ReadOnlyObject(m.d.ProfileRegistry), AddressArg(addr))
	if err != nil {
		return fromError("", what, err)
	}
	if len(values) == 0 {
		return notFound("", what, nil)
	}
	id, ok, err := DecodeOptionalAddress(values[0].Bytes)
	if err != nil {
		return notFound("", what, err)
	}
	if !ok {
		return notFound("", what, nil)
	}
	return found(id.String())
}

// GetUserProfile reads a user profile object.
func (m *EventManagement) GetUserProfile(ctx context.Context, id Address) Result[*models.UserProfile] {
	const what = "GetUserProfile"
	_, fields, err := m.client.GetMoveObject(ctx, id)
	if err != nil {
		return fromError[*models.UserProfile](nil, what, err)
	}
	p, err := decodeUserProfile(id, fields)
	if err != nil {
		return notFound[*models.UserProfile](nil, what, fmt.Errorf("profile %s: %w", id, err))
	}
	return found(&p)
}

// GetUserProfileByAddress chains HasProfile, GetUserProfileID and GetUserProfile.
func (m *EventManagement) GetUserProfileByAddress(ctx context.Context, addr Address) Result[*models.UserProfile] {
	has := m.HasProfile(ctx, addr)
	if !has.OK() {
		return Result[*models.UserProfile]{Status: has.Status, Err: has.Err}
	}
	if !has.Value {
		return notFound[*models.UserProfile](nil, "GetUserProfileByAddress", nil)
	}
	idRes := m.GetUserProfileID(ctx, addr)
	if !idRes.OK() {
		return Result[*models.UserProfile]{Status: idRes.Status, Err: idRes.Err}
	}
	id, err := ParseAddress(idRes.Value)
	if err != nil {
		return notFound[*models.UserProfile](nil, "GetUserProfileByAddress", err)
	}
	return m.GetUserProfile(ctx, id)
}

// GetEventAttendeeCount counts UserRegistered events for the event in the
// scan window. Older registrations fall outside the window and are not
// counted.
func (m *EventManagement) GetEventAttendeeCount(ctx context.Context, event Address) Result[uint64] {
	var count uint64
	err := scanRegistrations(ctx, m.client, m.d, func(ev SuiEvent) bool {
		if !ev.IsType(ModuleIdentityAccess, "UserRegistered") {
			return true
		}
		if id, err := ev.ParsedJSON.Address("event_id"); err == nil && id == event {
			count++
		}
		return true
	})
	if err != nil {
		return failed(uint64(0), "GetEventAttendeeCount", err)
	}
	return found(count)
}

// ExtractEventID finds the new event's id in a confirmed create_event
// transaction: the EventCreated event first, then the created Event object.
func ExtractEventID(tx *TransactionBlock) (Address, bool) {
	if tx == nil {
		return Address{}, false
	}
	for _, ev := range tx.Events {
		if ev.IsType(ModuleEventManagement, "EventCreated") {
			if id, err := ev.ParsedJSON.Address("event_id"); err == nil {
				return id, true
			}
		}
	}
	for _, ch := range tx.ObjectChanges {
		if ch.Type == "created" && strings.HasSuffix(ch.ObjectType, "::"+ModuleEventManagement+"::Event") {
			if id, err := ParseAddress(ch.ObjectID); err == nil {
				return id, true
			}
		}
	}
	return Address{}, false
}
