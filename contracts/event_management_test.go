package contracts

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ariya-backend/models"
)

func eventFields(name string, organizer Address, state models.EventState) map[string]any {
	return map[string]any{
		"id":                map[string]any{"id": testEvent.String()},
		"name":              name,
		"description":       "Monthly meetup",
		"location":          "Lagos",
		"start_time":        "1700000000000",
		"end_time":          "1700007200000",
		"capacity":          "50",
		"current_attendees": "2",
		"organizer":         organizer.String(),
		"state":             int(state),
		"created_at":        "1690000000000",
		"metadata_uri":      "walrus://blob",
		"fee_amount":        "1000000",
		"sponsor_conditions": map[string]any{
			"type": testPackage.String() + "::event_management::SponsorConditions",
			"fields": map[string]any{
				"min_attendees":       "10",
				"min_completion_rate": "70",
				"min_avg_rating":      "4",
				"custom_benchmarks": []any{
					map[string]any{"type": "x::y::Benchmark", "fields": map[string]any{"description": "posts", "target_value": "5", "current_value": "1"}},
				},
			},
		},
	}
}

func TestEventManagement_Builders(t *testing.T) {
	sdk := NewSDK(nil, testDeployment())
	req := models.CreateEventRequest{Name: "Move Meetup", StartTime: 1, EndTime: 2, Capacity: 50, FeeAmount: 10}

	tx := sdk.Events.CreateEvent(req, testProfile)
	require.Len(t, tx.Calls(), 1)
	call := tx.Calls()[0]
	assert.Equal(t, "create_event", call.Function)
	require.Len(t, call.Arguments, 14)
	assert.Equal(t, String("Move Meetup"), call.Arguments[0])
	assert.Equal(t, U64(10), call.Arguments[6])
	assert.Equal(t, ReadOnlyObject(clockObject), call.Arguments[11])
	assert.Equal(t, Object(testEventReg), call.Arguments[12])
	assert.Equal(t, Object(testProfile), call.Arguments[13])

	assert.True(t, reflect.DeepEqual(tx, sdk.Events.CreateEvent(req, testProfile)))

	profile := sdk.Events.CreateOrganizerProfile("Ada", "bio", testWallet)
	assert.Equal(t, uint64(profileGasBudget), profile.GasBudget)
	require.Len(t, profile.Commands, 2)
	require.NotNil(t, profile.Commands[1].TransferObjects)
	assert.Equal(t, AddressArg(testWallet), profile.Commands[1].TransferObjects.Recipient)
	assert.Equal(t, ArgResult, profile.Commands[1].TransferObjects.Objects[0].Kind)

	complete := sdk.Events.CompleteEvent(testEvent, testProfile).Calls()[0]
	assert.Equal(t, []Arg{Object(testEvent), ReadOnlyObject(clockObject), Object(testEventReg), Object(testProfile)}, complete.Arguments)

	assert.True(t, sdk.Events.ActivateEvent(testEvent).HasFunction(ModuleEventManagement, "activate_event"))
	assert.True(t, sdk.Events.DeleteEvent(testEvent).HasFunction(ModuleEventManagement, "delete_event"))

	user := sdk.Events.CreateProfile(models.CreateProfileRequest{Name: "Ada"}, testWallet)
	assert.Equal(t, Object(testProfReg), user.Calls()[0].Arguments[6])
	assert.Len(t, user.Commands, 2)
}

func TestEventManagement_GetEvent(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()
	n.addShared(testEvent, "event_management::Event", eventFields("Move Meetup", testWallet, models.EventActive))

	res := sdk.Events.GetEvent(ctx, testEvent)
	require.True(t, res.OK())
	ev := res.Value
	assert.Equal(t, "Move Meetup", ev.Name)
	assert.Equal(t, uint64(1_700_000_000_000), ev.StartTime)
	assert.Equal(t, models.EventActive, ev.State)
	assert.Equal(t, testWallet.String(), ev.Organizer)
	assert.Equal(t, uint64(1_000_000), ev.FeeAmount)
	assert.Equal(t, uint64(70), ev.SponsorConditions.MinCompletionRate)
	require.Len(t, ev.SponsorConditions.CustomBenchmarks, 1)
	assert.Equal(t, "posts", ev.SponsorConditions.CustomBenchmarks[0].Description)

	missing := sdk.Events.GetEvent(ctx, testOther)
	assert.Equal(t, StatusNotFound, missing.Status)
	assert.Nil(t, missing.Value)

	n.addShared(testOther, "event_management::Event", map[string]any{"name": "broken"})
	assert.Equal(t, StatusNotFound, sdk.Events.GetEvent(ctx, testOther).Status)

	n.setFail(true)
	down := sdk.Events.GetEvent(ctx, testEvent)
	assert.Equal(t, StatusTransportError, down.Status)
	assert.Error(t, down.Err)
}

func TestEventManagement_EventLists(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()

	closed := MustParseAddress("0xc105ed")
	n.addShared(testEvent, "event_management::Event", eventFields("Open", testWallet, models.EventActive))
	n.addShared(closed, "event_management::Event", eventFields("Closed", testOther, models.EventCompleted))
	n.addEvent(ModuleEventManagement, "create_event", "EventCreated", map[string]any{"event_id": closed.String(), "organizer": testOther.String()})
	n.addEvent(ModuleEventManagement, "create_event", "EventCreated", map[string]any{"event_id": testEvent.String(), "organizer": testWallet.String()})
	n.addEvent(ModuleEventManagement, "create_event", "EventCreated", map[string]any{"event_id": testEvent.String(), "organizer": testWallet.String()})

	active := sdk.Events.GetActiveEvents(ctx)
	require.True(t, active.OK())
	require.Len(t, active.Value, 1)
	assert.Equal(t, "Open", active.Value[0].Name)

	mine := sdk.Events.GetEventsByOrganizer(ctx, testOther)
	require.True(t, mine.OK())
	require.Len(t, mine.Value, 1)
	assert.Equal(t, "Closed", mine.Value[0].Name)

	none := sdk.Events.GetEventsByOrganizer(ctx, testProfile)
	assert.True(t, none.OK())
	assert.NotNil(t, none.Value)
	assert.Empty(t, none.Value)

	n.setFail(true)
	down := sdk.Events.GetActiveEvents(ctx)
	assert.Equal(t, StatusTransportError, down.Status)
	assert.NotNil(t, down.Value)
	assert.Empty(t, down.Value)
	byOrg := sdk.Events.GetEventsByOrganizer(ctx, testWallet)
	assert.Equal(t, StatusTransportError, byOrg.Status)
	assert.NotNil(t, byOrg.Value)
}

func TestEventManagement_AttendeeCount(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()
	n.addShared(testEvent, "event_management::Event", eventFields("Move Meetup", testWallet, models.EventActive))
	n.addEvent(ModuleIdentityAccess, "register_for_event", "UserRegistered", map[string]any{"event_id": testEvent.String(), "wallet": testWallet.String()})
	n.addEvent(ModuleIdentityAccess, "register_for_free_event", "UserRegistered", map[string]any{"event_id": testEvent.String(), "wallet": testOther.String()})
	n.addEvent(ModuleIdentityAccess, "register_for_free_event", "UserRegistered", map[string]any{"event_id": testOther.String(), "wallet": testOther.String()})

	count := sdk.Events.GetEventAttendeeCount(ctx, testEvent)
	require.True(t, count.OK())
	assert.Equal(t, uint64(2), count.Value)

	ev := sdk.Events.GetEventWithAttendeeCount(ctx, testEvent)
	require.True(t, ev.OK())
	assert.Equal(t, uint64(2), ev.Value.CurrentAttendees)
}

func TestEventManagement_OrganizerProfile(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()

	capID := MustParseAddress("0xca9")
	n.addShared(testProfile, "event_management::OrganizerProfile", map[string]any{
		"address": testWallet.String(), "name": "Ada", "bio": "hi", "total_events": "3", "avg_rating": "450",
	})
	n.addOwned(testWallet, capID, ModuleEventManagement, "OrganizerCap", map[string]any{"profile_id": testProfile.String()})
	n.addOwned(testOther, MustParseAddress("0xca8"), ModuleEventManagement, "OrganizerCap", map[string]any{"profile_id": testProfile.String()})

	has := sdk.Events.HasOrganizerProfile(ctx, testWallet)
	require.True(t, has.OK())
	assert.True(t, has.Value)

	other := sdk.Events.HasOrganizerProfile(ctx, testOther)
	require.True(t, other.OK())
	assert.False(t, other.Value, "cap pointing at someone else's profile")

	orgCap := sdk.Events.GetOrganizerCap(ctx, testWallet)
	require.True(t, orgCap.OK())
	assert.Equal(t, testProfile.String(), orgCap.Value.ProfileID)
	assert.Equal(t, StatusNotFound, sdk.Events.GetOrganizerCap(ctx, testProfile).Status)

	profile := sdk.Events.GetOrganizerProfile(ctx, testProfile)
	require.True(t, profile.OK())
	assert.Equal(t, uint64(3), profile.Value.TotalEvents)

	n.addTx(ModuleEventManagement, "create_organizer_profile", TransactionBlock{ObjectChanges: []ObjectChange{
		{Type: "created", ObjectType: testPackage.String() + "::event_management::OrganizerCap", ObjectID: capID.String()},
		{Type: "created", ObjectType: testPackage.String() + "::event_management::OrganizerProfile", ObjectID: testProfile.String()},
	}})
	all := sdk.Events.GetAllOrganizers(ctx)
	require.True(t, all.OK())
	require.Len(t, all.Value, 1)
	assert.Equal(t, "Ada", all.Value[0].Name)

	n.setFail(true)
	down := sdk.Events.HasOrganizerProfile(ctx, testWallet)
	assert.Equal(t, StatusTransportError, down.Status)
	assert.False(t, down.Value)
}

func TestEventManagement_UserProfile(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()

	userProfile := MustParseAddress("0x9f")
	n.addShared(userProfile, "event_management::UserProfile", map[string]any{
		"address": testWallet.String(), "name": "Ada", "x_username": "ada",
	})
	n.onInspect(ModuleEventManagement, "has_profile", func(call inspectCall) ([]ReturnValue, string) {
		return []ReturnValue{rvBool(string(call.Pure[1]) == string(testWallet[:]))}, ""
	})
	n.onInspect(ModuleEventManagement, "get_user_profile_id", returns(rvAddress(userProfile)))

	has := sdk.Events.HasProfile(ctx, testWallet)
	require.True(t, has.OK())
	assert.True(t, has.Value)
	assert.False(t, sdk.Events.HasProfile(ctx, testOther).Value)

	calls := n.inspectedCalls()
	require.NotEmpty(t, calls)
	assert.Equal(t, []Address{testProfReg}, calls[0].Objects)

	id := sdk.Events.GetUserProfileID(ctx, testWallet)
	require.True(t, id.OK())
	assert.Equal(t, userProfile.String(), id.Value)

	p := sdk.Events.GetUserProfileByAddress(ctx, testWallet)
	require.True(t, p.OK())
	assert.Equal(t, "ada", p.Value.XUsername)
	assert.Equal(t, StatusNotFound, sdk.Events.GetUserProfileByAddress(ctx, testOther).Status)

	n.setFail(true)
	down := sdk.Events.HasProfile(ctx, testWallet)
	assert.Equal(t, StatusTransportError, down.Status)
	assert.False(t, down.Value)
}

func TestEventManagement_UserProfileIDOption(t *testing.T) {
	sdk, n := newTestSDK(t)
	n.onInspect(ModuleEventManagement, "get_user_profile_id", returns(ReturnValue{Bytes: []byte{0}, Type: "0x1::option::Option<0x2::object::ID>"}))
	assert.Equal(t, StatusNotFound, sdk.Events.GetUserProfileID(context.Background(), testWallet).Status)
}

func TestEventManagement_FeeAmount(t *testing.T) {
	sdk, n := newTestSDK(t)
	n.addShared(testEvent, "event_management::Event", eventFields("Move Meetup", testWallet, models.EventActive))
	n.onInspect(ModuleEventManagement, "get_event_fee_amount", returns(rvU64(2_500)))

	fee := sdk.Events.GetEventFeeAmount(context.Background(), testEvent)
	require.True(t, fee.OK())
	assert.Equal(t, uint64(2_500), fee.Value)
}

func TestExtractEventID(t *testing.T) {
	fromEvent := &TransactionBlock{Events: []SuiEvent{
		testEventOf(ModuleEventManagement, "EventCreated", map[string]any{"event_id": testEvent.String()}),
	}}
	id, ok := ExtractEventID(fromEvent)
	require.True(t, ok)
	assert.Equal(t, testEvent, id)

	fromChange := &TransactionBlock{ObjectChanges: []ObjectChange{
		{Type: "mutated", ObjectType: testPackage.String() + "::event_management::EventRegistry", ObjectID: testEventReg.String()},
		{Type: "created", ObjectType: testPackage.String() + "::event_management::Event", ObjectID: testOther.String()},
	}}
	id, ok = ExtractEventID(fromChange)
	require.True(t, ok)
	assert.Equal(t, testOther, id)

	_, ok = ExtractEventID(&TransactionBlock{})
	assert.False(t, ok)
	_, ok = ExtractEventID(nil)
	assert.False(t, ok)
}
