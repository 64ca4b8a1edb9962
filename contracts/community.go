package contracts

import (
	"context"
	"encoding/json"
	"fmt"

	"ariya-backend/models"
)

const ModuleCommunity = "community_access"

// Communities builds token-gated community calls and reads them back.
type Communities struct {
	client *Client
	d      Deployment
}

// CreateCommunity attaches a community to event. A nil MinimumRating is
// sent as 0, which the contract reads as no minimum.
func (m *Communities) CreateCommunity(event Address, cfg models.CommunityConfig) (*Transaction, error) {
	limit, ok := models.ParseTimeLimit(cfg.AccessRequirements.TimeLimit)
	if !ok {
		return nil, fmt.Errorf("%w: time limit %q", ErrInvalidArgument, cfg.AccessRequirements.TimeLimit)
	}
	for _, t := range cfg.AccessRequirements.NFTTypes {
		if t != models.NFTProofOfAttendance && t != models.NFTCompletion {
			return nil, fmt.Errorf("%w: nft type %q", ErrInvalidArgument, t)
		}
	}
	moderators, err := ParseAddresses(cfg.Moderators)
	if err != nil {
		return nil, fmt.Errorf("moderators: %w", err)
	}
	var minRating uint64
	if cfg.AccessRequirements.MinimumRating != nil {
		minRating = *cfg.AccessRequirements.MinimumRating
	}

	f := cfg.Features
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleCommunity, "create_community",
		ID(event),
		String(cfg.Name),
		String(cfg.Description),
		Strings(cfg.AccessRequirements.NFTTypes),
		U64(minRating),
		U8(uint8(limit)),
		U64(cfg.AccessRequirements.CustomDuration),
		Bool(f.Forum),
		Bool(f.Resources),
		Bool(f.Calendar),
		Bool(f.Directory),
		Bool(f.Governance),
		Addresses(moderators),
		Object(m.d.CommunityRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx, nil
}

// RequestCommunityAccess asks to join a community as the sender.
func (m *Communities) RequestCommunityAccess(community Address) *Transaction {
	tx := NewTransaction()
	tx.MoveCall(m.d.Package, ModuleCommunity, "request_access",
		ID(community),
		Object(m.d.CommunityRegistry),
		ReadOnlyObject(m.d.NFTRegistry),
		ReadOnlyObject(m.d.AttendanceRegistry),
		ReadOnlyObject(m.d.Clock),
	)
	return tx
}

// timeLimitName accepts the time limit as a u8 or as its name.
func timeLimitName(f MoveFields) string {
	if v, err := f.U64("time_limit"); err == nil {
		return models.TimeLimit(v).String()
	}
	return f.StringOr("time_limit", models.TimeLimitPermanent.String())
}

func decodeCommunity(id Address, f MoveFields) (models.Community, error) {
	name, err := f.String("name")
	if err != nil {
		return models.Community{}, err
	}
	event, err := f.Address("event_id")
	if err != nil {
		return models.Community{}, err
	}
	c := models.Community{
		ID:          id.String(),
		EventID:     event.String(),
		Name:        name,
		Description: f.StringOr("description", ""),
		Moderators:  []string{},
		CreatedAt:   f.U64Or("created_at", 0),
		Active:      f.BoolOr("active", true),
	}
	c.AccessRequirements.NFTTypes = []string{}
	c.AccessRequirements.TimeLimit = models.TimeLimitPermanent.String()

	if req, err := f.Struct("access_requirements"); err == nil {
		if types, err := req.Strings("nft_types"); err == nil {
			c.AccessRequirements.NFTTypes = types
		}
		if raw, ok := req.Option("minimum_rating"); ok {
			var v StringU64
			if err := json.Unmarshal(raw, &v); err == nil {
				rating := uint64(v)
				c.AccessRequirements.MinimumRating = &rating
			}
		}
		c.AccessRequirements.TimeLimit = timeLimitName(req)
		c.AccessRequirements.CustomDuration = req.U64Or("custom_duration", 0)
	}
	if feat, err := f.Struct("features"); err == nil {
		c.Features = models.CommunityFeatures{
			Forum:      feat.BoolOr("forum", false),
			Resources:  feat.BoolOr("resources", false),
			Calendar:   feat.BoolOr("calendar", false),
			Directory:  feat.BoolOr("directory", false),
			Governance: feat.BoolOr("governance", false),
		}
	}
	if mods, err := f.Addresses("moderators"); err == nil {
		for _, a := range mods {
			c.Moderators = append(c.Moderators, a.String())
		}
	}
	return c, nil
}

// GetCommunityDetails reads a community object.
func (m *Communities) GetCommunityDetails(ctx context.Context, id Address) Result[*models.Community] {
	const what = "GetCommunityDetails"
	_, fields, err := m.client.GetMoveObject(ctx, id)
	if err != nil {
		return fromError[*models.Community](nil, what, err)
	}
	c, err := decodeCommunity(id, fields)
	if err != nil {
		return notFound[*models.Community](nil, what, fmt.Errorf("community %s: %w", id, err))
	}
	return found(&c)
}

// scanCommunities resolves the communities announced by CommunityCreated
// in the scan window. keep filters on the event id.
func (m *Communities) scanCommunities(ctx context.Context, keep func(event Address) bool) ([]models.Community, error) {
	var ids []Address
	seen := make(map[Address]bool)
	err := m.client.ScanEvents(ctx, m.d.Package, ModuleCommunity, "create_community", func(_ TransactionBlock, ev SuiEvent) bool {
		if !ev.IsType(ModuleCommunity, "CommunityCreated") {
			return true
		}
		id, err := ev.ParsedJSON.Address("community_id")
		if err != nil || seen[id] {
			return true
		}
		if keep != nil {
			event, err := ev.ParsedJSON.Address("event_id")
			if err != nil || !keep(event) {
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

	out := make([]models.Community, 0, len(ids))
	for _, id := range ids {
		res := m.GetCommunityDetails(ctx, id)
		switch res.Status {
		case StatusOK:
			out = append(out, *res.Value)
		case StatusTransportError:
			return nil, res.Err
		}
	}
	return out, nil
}

// GetEventCommunities lists the communities attached to event.
func (m *Communities) GetEventCommunities(ctx context.Context, event Address) Result[[]models.Community] {
	out, err := m.scanCommunities(ctx, func(e Address) bool { return e == event })
	if err != nil {
		return failed([]models.Community{}, "GetEventCommunities", err)
	}
	return found(out)
}

// GetAllCommunities lists recent communities.
func (m *Communities) GetAllCommunities(ctx context.Context) Result[[]models.Community] {
	out, err := m.scanCommunities(ctx, nil)
	if err != nil {
		return failed([]models.Community{}, "GetAllCommunities", err)
	}
	return found(out)
}

// CheckCommunityAccess asks the registry whether user is a member.
func (m *Communities) CheckCommunityAccess(ctx context.Context, community, user Address) Result[bool] {
	ok, err := m.client.ViewBool(ctx, m.d.Package, ModuleCommunity, "check_community_access",
		AddressArg(user), ID(community), ReadOnlyObject(m.d.CommunityRegistry))
	if err != nil {
		return fromError(false, "CheckCommunityAccess", err)
	}
	return found(ok)
}
