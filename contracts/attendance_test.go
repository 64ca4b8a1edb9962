package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ariya-backend/models"
)

func TestAttendance_CheckInBuilders(t *testing.T) {
	sdk := NewSDK(nil, testDeployment())

	byPass := sdk.Attendance.CheckInWithPassID(testEvent, testWallet, 42).Calls()[0]
	assert.Equal(t, "check_in_attendee", byPass.Function)
	hash := PassHash(42, testEvent, testWallet)
	assert.Equal(t, []Arg{
		AddressArg(testWallet),
		ID(testEvent),
		Bytes(hash[:]),
		Object(testAttReg),
		Object(testRegReg),
		ReadOnlyObject(clockObject),
	}, byPass.Arguments)

	q := models.NewQRPayload(testEvent.String(), 42, testWallet.String(), "0xforged", time.Now())
	byQR, err := sdk.Attendance.CheckInWithQR(q)
	require.NoError(t, err)
	assert.Equal(t, byPass.Arguments, byQR.Calls()[0].Arguments)

	_, err = sdk.Attendance.CheckInWithQR(models.QRPayload{EventID: "nope", Wallet: testWallet.String()})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	out := sdk.Attendance.CheckOut(testWallet, testEvent).Calls()[0]
	assert.Equal(t, "check_out_attendee", out.Function)
	assert.Equal(t, []Arg{AddressArg(testWallet), ID(testEvent), Object(testAttReg), ReadOnlyObject(clockObject)}, out.Arguments)

	meta := sdk.Attendance.SetEventMetadata(testEvent, "PoA", "https://x", "Lagos", testWallet).Calls()[0]
	assert.Equal(t, ModuleNFTMinting, meta.Module)
	assert.Equal(t, Object(testNFTReg), meta.Arguments[5])
}

func TestAttendance_Status(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()
	n.onInspect(ModuleAttendance, "get_attendance_status", returns(rvBool(true), rvU8(2), rvU64(1_000), rvU64(3_601_000)))

	res := sdk.Attendance.GetAttendanceStatus(ctx, testEvent, testWallet)
	require.True(t, res.OK())
	assert.True(t, res.Value.Registered)
	assert.Equal(t, models.AttendanceCheckedOut, res.Value.State)
	assert.Equal(t, time.Hour, res.Value.Duration())

	n.onInspect(ModuleAttendance, "get_attendance_status", aborts(ModuleAttendance, 4))
	none := sdk.Attendance.GetAttendanceStatus(ctx, testEvent, testWallet)
	require.True(t, none.OK())
	assert.Equal(t, models.AttendanceNone, none.Value.State)

	n.onInspect(ModuleAttendance, "get_attendance_status", returns(rvBool(true)))
	assert.Equal(t, StatusNotFound, sdk.Attendance.GetAttendanceStatus(ctx, testEvent, testWallet).Status)
}

func TestAttendance_Stats(t *testing.T) {
	sdk, n := newTestSDK(t)
	n.onInspect(ModuleAttendance, "get_event_stats", returns(rvU64(5), rvU64(3), rvU64(0)))

	res := sdk.Attendance.GetEventStats(context.Background(), testEvent)
	require.True(t, res.OK())
	assert.Equal(t, models.AttendanceStats{CheckedIn: 5, CheckedOut: 3, Total: 8}, res.Value)
}

func TestAttendance_NFT(t *testing.T) {
	sdk, n := newTestSDK(t)
	ctx := context.Background()
	n.onInspect(ModuleNFTMinting, "has_proof_of_attendance", returns(rvBool(true)))
	n.onInspect(ModuleNFTMinting, "get_event_metadata", returns(rvString("PoA"), rvString("https://x")))

	poa := sdk.Attendance.HasProofOfAttendance(ctx, testEvent, testWallet)
	require.True(t, poa.OK())
	assert.True(t, poa.Value)

	enabled := sdk.Attendance.IsNFTMintingEnabled(ctx, testEvent)
	require.True(t, enabled.OK())
	assert.True(t, enabled.Value)

	n.onInspect(ModuleNFTMinting, "get_event_metadata", aborts(ModuleNFTMinting, 1))
	disabled := sdk.Attendance.IsNFTMintingEnabled(ctx, testEvent)
	require.True(t, disabled.OK())
	assert.False(t, disabled.Value)

	n.addOwned(testWallet, MustParseAddress("0x3a"), ModuleAttendance, "MintPoACapability", map[string]any{"event_id": testEvent.String()})
	capRes := sdk.Attendance.HasMintCapability(ctx, testWallet, testEvent)
	require.True(t, capRes.OK())
	assert.True(t, capRes.Value)
	assert.False(t, sdk.Attendance.HasMintCapability(ctx, testWallet, testOther).Value)

	n.setFail(true)
	down := sdk.Attendance.HasProofOfAttendance(ctx, testEvent, testWallet)
	assert.Equal(t, StatusTransportError, down.Status)
	assert.False(t, down.Value)
}

func TestAttendance_ListRegisteredWallets(t *testing.T) {
	sdk, n := newTestSDK(t)
	n.addEvent(ModuleIdentityAccess, "register_for_event", "UserRegistered", map[string]any{"event_id": testEvent.String(), "wallet": testWallet.String()})
	n.addEvent(ModuleIdentityAccess, "register_for_free_event", "UserRegistered", map[string]any{"event_id": testEvent.String(), "wallet": testWallet.String()})
	n.addEvent(ModuleIdentityAccess, "register_for_free_event", "UserRegistered", map[string]any{"event_id": testEvent.String(), "wallet": testOther.String()})

	res := sdk.Attendance.ListRegisteredWallets(context.Background(), testEvent)
	require.True(t, res.OK())
	assert.ElementsMatch(t, []string{testWallet.String(), testOther.String()}, res.Value)
}
