package contracts

import (
	"context"
	"fmt"

	"ariya-backend/models"
)

const ModuleAirdrop = "airdrop_distribution"

var claimFunctions = []string{"claim_airdrop", "batch_distribute"}

// Airdrops builds airdrop calls and reads pools and claims.
type Airdrops struct {
	client *Client
	d      Deployment
}

func (m *Airdrops) call(tx *Transaction, function string, args ...Arg) {
	tx.MoveCall(m.d.Package, ModuleAirdrop, function, args...)
}

// CreateAirdrop funds a new pool for event from payment.
func (m *Airdrops) CreateAirdrop(event Address, cfg models.AirdropConfig, payment Address) (*Transaction, error) {
	if !cfg.DistributionType.Valid() {
		return nil, fmt.Errorf("%w: distribution type %d", ErrInvalidArgument, cfg.DistributionType)
	}
	tx := NewTransaction()
	m.call(tx, "create_airdrop",
		ReadOnlyObject(event),
		String(cfg.Name),
		String(cfg.Description),
		Object(payment),
		U8(uint8(cfg.DistributionType)),
		Bool(cfg.Eligibility.RequireAttendance),
		Bool(cfg.Eligibility.RequireCompletion),
		U64(cfg.Eligibility.MinDuration),
		Bool(cfg.Eligibility.RequireRatingSubmitted),
		U64(cfg.ValidityDays),
		Object(m.d.AirdropRegistry),
		ReadOnlyObject(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx, nil
}

// ClaimAirdrop claims the sender's share.
func (m *Airdrops) ClaimAirdrop(airdrop Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "claim_airdrop",
		ID(airdrop),
		Object(m.d.AirdropRegistry),
		ReadOnlyObject(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.NFTRegistry),
		ReadOnlyObject(m.d.RatingRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// BatchDistribute pays an explicit recipient list. Organizer only.
func (m *Airdrops) BatchDistribute(airdrop Address, recipients []Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "batch_distribute",
		ID(airdrop),
		Addresses(recipients),
		Object(m.d.AirdropRegistry),
		ReadOnlyObject(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.NFTRegistry),
		ReadOnlyObject(m.d.RatingRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// WithdrawUnclaimed returns what is left in an expired pool.
func (m *Airdrops) WithdrawUnclaimed(airdrop Address) *Transaction {
	tx := NewTransaction()
	m.call(tx, "withdraw_unclaimed",
		ID(airdrop),
		Object(m.d.AirdropRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// tupleReader walks the return values of a view function in order.
type tupleReader struct {
	values []ReturnValue
	i      int
	err    error
}

func (r *tupleReader) next() []byte {
	if r.err != nil {
		return nil
	}
	if r.i >= len(r.values) {
		r.err = fmt.Errorf("missing return value %d", r.i)
		return nil
	}
	b := r.values[r.i].Bytes
	r.i++
	return b
}

func (r *tupleReader) more() bool { return r.err == nil && r.i < len(r.values) }

func (r *tupleReader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = fmt.Errorf("return value %d: %w", r.i-1, err)
	}
}

func (r *tupleReader) u64() uint64 {
	b := r.next()
	if r.err != nil {
		return 0
	}
	v, err := DecodeU64(b)
	r.fail(err)
	return v
}

func (r *tupleReader) u8() uint8 {
	b := r.next()
	if r.err != nil {
		return 0
	}
	v, err := DecodeU8(b)
	r.fail(err)
	return v
}

func (r *tupleReader) boolean() bool {
	b := r.next()
	if r.err != nil {
		return false
	}
	v, err := DecodeBool(b)
	r.fail(err)
	return v
}

func (r *tupleReader) str() string {
	b := r.next()
	if r.err != nil {
		return ""
	}
	v, err := DecodeString(b)
	r.fail(err)
	return v
}

func (r *tupleReader) address() Address {
	b := r.next()
	if r.err != nil {
		return Address{}
	}
	v, err := DecodeAddress(b)
	r.fail(err)
	return v
}

// GetAirdropDetails reads a pool through get_airdrop_details. The view
// returns (event_id, name, description, pool_balance, claimed_count,
// total_recipients, expires_at, active) optionally followed by the
// distribution type and the four eligibility fields.
func (m *Airdrops) GetAirdropDetails(ctx context.Context, airdrop Address) Result[*models.AirdropDetails] {
	const what = "GetAirdropDetails"
	values, err := m.client.View(ctx, m.d.Package, ModuleAirdrop, "get_airdrop_details",
		ID(airdrop), ReadOnlyObject(m.d.AirdropRegistry))
	if err != nil {
		return fromError[*models.AirdropDetails](nil, what, err)
	}

	r := &tupleReader{values: values}
	out := &models.AirdropDetails{ID: airdrop.String()}
	out.EventID = r.address().String()
	out.Name = r.str()
	out.Description = r.str()
	out.PoolBalance = r.u64()
	out.ClaimedCount = r.u64()
	out.TotalRecipients = r.u64()
	out.ExpiresAt = r.u64()
	out.Active = r.boolean()
	if r.more() {
		out.DistributionType = models.DistributionType(r.u8())
	}
	if r.more() {
		out.Eligibility.RequireAttendance = r.boolean()
		out.Eligibility.RequireCompletion = r.boolean()
		out.Eligibility.MinDuration = r.u64()
		out.Eligibility.RequireRatingSubmitted = r.boolean()
	}
	if r.err != nil {
		return notFound[*models.AirdropDetails](nil, what, fmt.Errorf("airdrop %s: %w", airdrop, r.err))
	}
	return found(out)
}

// GetEventAirdrops lists the airdrop ids attached to an event.
func (m *Airdrops) GetEventAirdrops(ctx context.Context, event Address) Result[[]string] {
	const what = "GetEventAirdrops"
	b, err := m.client.viewFirst(ctx, m.d.Package, ModuleAirdrop, "get_event_airdrops",
		ID(event), ReadOnlyObject(m.d.AirdropRegistry))
	if err != nil {
		return fromError([]string{}, what, err)
	}
	ids, err := DecodeAddressVector(b)
	if err != nil {
		return notFound([]string{}, what, err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return found(out)
}

// claimFromEvent decodes an AirdropClaimed event for user.
func claimFromEvent(ev SuiEvent, user Address) (Address, models.ClaimRecord, bool) {
	if !ev.IsType(ModuleAirdrop, "AirdropClaimed") {
		return Address{}, models.ClaimRecord{}, false
	}
	f := ev.ParsedJSON
	claimer, err := f.FirstAddress("user", "claimer", "recipient")
	if err != nil || claimer != user {
		return Address{}, models.ClaimRecord{}, false
	}
	airdrop, err := f.Address("airdrop_id")
	if err != nil {
		return Address{}, models.ClaimRecord{}, false
	}
	rec := models.ClaimRecord{
		AirdropID: airdrop.String(),
		Amount:    f.U64Or("amount", 0),
		ClaimedAt: f.U64Or("timestamp", f.U64Or("claimed_at", uint64(ev.TimestampMs))),
	}
	if eventID, err := f.Address("event_id"); err == nil {
		rec.EventID = eventID.String()
	}
	return airdrop, rec, true
}

func (m *Airdrops) scanClaims(ctx context.Context, user Address, visit func(Address, models.ClaimRecord) bool) error {
	for _, fn := range claimFunctions {
		stop := false
		err := m.client.ScanEvents(ctx, m.d.Package, ModuleAirdrop, fn, func(_ TransactionBlock, ev SuiEvent) bool {
			airdrop, rec, ok := claimFromEvent(ev, user)
			if !ok {
				return true
			}
			if !visit(airdrop, rec) {
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

// GetClaimStatus reports whether user claimed from airdrop. No claim event
// in the scan window means {false, 0}.
func (m *Airdrops) GetClaimStatus(ctx context.Context, airdrop, user Address) Result[models.ClaimStatus] {
	var status models.ClaimStatus
	err := m.scanClaims(ctx, user, func(id Address, rec models.ClaimRecord) bool {
		if id != airdrop {
			return true
		}
		status = models.ClaimStatus{Claimed: true, Amount: rec.Amount}
		return false
	})
	if err != nil {
		return failed(models.ClaimStatus{}, "GetClaimStatus", err)
	}
	return found(status)
}

// GetUserClaims lists user's claims in the scan window, one per airdrop.
func (m *Airdrops) GetUserClaims(ctx context.Context, user Address) Result[[]models.ClaimRecord] {
	out := []models.ClaimRecord{}
	seen := make(map[Address]bool)
	err := m.scanClaims(ctx, user, func(id Address, rec models.ClaimRecord) bool {
		if !seen[id] {
			seen[id] = true
			out = append(out, rec)
		}
		return true
	})
	if err != nil {
		return failed([]models.ClaimRecord{}, "GetUserClaims", err)
	}
	return found(out)
}

// IsUserEligible asks the contract whether user may claim from airdrop.
func (m *Airdrops) IsUserEligible(ctx context.Context, airdrop, user Address) Result[bool] {
	ok, err := m.client.ViewBool(ctx, m.d.Package, ModuleAirdrop, "is_user_eligible",
		AddressArg(user),
		ID(airdrop),
		ReadOnlyObject(m.d.AirdropRegistry),
		ReadOnlyObject(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.NFTRegistry),
		ReadOnlyObject(m.d.RatingRegistry),
	)
	if err != nil {
		return fromError(false, "IsUserEligible", err)
	}
	return found(ok)
}

// PreviewEligibility runs the criteria over the attendance of every
// registered wallet. Ratings are not readable on chain, so rated lists the
// wallets the caller knows have rated.
func (m *Airdrops) PreviewEligibility(ctx context.Context, att *Attendance, event Address, criteria models.EligibilityCriteria, rated map[string]bool) Result[models.EligibilityPreview] {
	const what = "PreviewEligibility"
	empty := criteria.Preview(nil)
	wallets := att.ListRegisteredWallets(ctx, event)
	if !wallets.OK() {
		return Result[models.EligibilityPreview]{Value: empty, Status: wallets.Status, Err: wallets.Err}
	}

	candidates := make([]models.EligibilityCandidate, 0, len(wallets.Value))
	for _, w := range wallets.Value {
		wallet, err := ParseAddress(w)
		if err != nil {
			continue
		}
		rec := att.GetAttendanceStatus(ctx, event, wallet)
		if rec.Status == StatusTransportError {
			return failed(empty, what, rec.Err)
		}
		candidates = append(candidates, models.EligibilityCandidate{
			Attendance: rec.Value,
			Rated:      rated[w],
		})
	}
	return found(criteria.Preview(candidates))
}
