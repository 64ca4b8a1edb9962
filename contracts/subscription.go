package contracts

import (
	"context"
	"encoding/json"
	"fmt"

	"ariya-backend/models"
)

const ModuleSubscription = "subscription"

// Subscriptions reads organizer subscriptions and plan prices.
type Subscriptions struct {
	client *Client
	d      Deployment
}

// lookupSubscription finds user in the registry's user_subscriptions field,
// stored either as an inline JSON map or as a VecMap.
func lookupSubscription(f MoveFields, user Address) (Address, bool, error) {
	raw, ok := f["user_subscriptions"]
	if !ok {
		return Address{}, false, fmt.Errorf("%w: user_subscriptions", errMissingField)
	}

	contents := raw
	if s, err := decodeStruct(raw); err == nil {
		if c, ok := s["contents"]; ok {
			contents = c
		}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(contents, &entries); err == nil {
		for _, e := range entries {
			entry, err := decodeStruct(e)
			if err != nil {
				continue
			}
			key, err := entry.Address("key")
			if err != nil || key != user {
				continue
			}
			id, err := entry.Address("value")
			if err != nil {
				return Address{}, false, err
			}
			return id, true, nil
		}
		return Address{}, false, nil
	}

	var inline map[string]json.RawMessage
	if err := json.Unmarshal(contents, &inline); err != nil {
		return Address{}, false, fmt.Errorf("user_subscriptions: %w", err)
	}
	for k, v := range inline {
		key, err := ParseAddress(k)
		if err != nil || key != user {
			continue
		}
		id, err := decodeAddressValue(v)
		if err != nil {
			return Address{}, false, err
		}
		return id, true, nil
	}
	return Address{}, false, nil
}

// GetUserSubscriptionID finds the subscription object the user owns.
func (m *Subscriptions) GetUserSubscriptionID(ctx context.Context, user Address) Result[string] {
	const what = "GetUserSubscriptionID"
	_, fields, err := m.client.GetMoveObject(ctx, m.d.SubscriptionRegistry)
	if err != nil {
		return fromError("", what, err)
	}
	id, ok, err := lookupSubscription(fields, user)
	if err != nil {
		return notFound("", what, err)
	}
	if !ok {
		return notFound("", what, nil)
	}
	return found(id.String())
}

// GetUserSubscription reads a subscription object.
func (m *Subscriptions) GetUserSubscription(ctx context.Context, id Address) Result[*models.UserSubscription] {
	const what = "GetUserSubscription"
	_, f, err := m.client.GetMoveObject(ctx, id)
	if err != nil {
		return fromError[*models.UserSubscription](nil, what, err)
	}
	user, err := f.Address("user")
	if err != nil {
		return notFound[*models.UserSubscription](nil, what, fmt.Errorf("subscription %s: %w", id, err))
	}
	tier := models.SubscriptionTier(f.U64Or("subscription_type", 0))
	return found(&models.UserSubscription{
		ID:          id.String(),
		User:        user.String(),
		Tier:        tier,
		TierName:    tier.Name(),
		StartDate:   f.U64Or("start_date", 0),
		EndDate:     f.U64Or("end_date", 0),
		IsActive:    f.BoolOr("is_active", false),
		CreatedAt:   f.U64Or("created_at", 0),
		LastUpdated: f.U64Or("last_updated", 0),
	})
}

// HasActiveSubscription resolves the user's subscription and checks it is
// flagged active and not past its end date at nowMs.
func (m *Subscriptions) HasActiveSubscription(ctx context.Context, user Address, nowMs uint64) Result[bool] {
	idRes := m.GetUserSubscriptionID(ctx, user)
	switch idRes.Status {
	case StatusNotFound:
		return found(false)
	case StatusTransportError:
		return Result[bool]{Status: idRes.Status, Err: idRes.Err}
	}
	id, err := ParseAddress(idRes.Value)
	if err != nil {
		return found(false)
	}
	sub := m.GetUserSubscription(ctx, id)
	switch sub.Status {
	case StatusNotFound:
		return found(false)
	case StatusTransportError:
		return Result[bool]{Status: sub.Status, Err: sub.Err}
	}
	active := sub.Value.IsActive && (sub.Value.EndDate == 0 || sub.Value.EndDate > nowMs)
	return found(active)
}

// GetSubscriptionConfig reads the plan prices.
func (m *Subscriptions) GetSubscriptionConfig(ctx context.Context) Result[*models.SubscriptionConfig] {
	const what = "GetSubscriptionConfig"
	_, f, err := m.client.GetMoveObject(ctx, m.d.SubscriptionConfig)
	if err != nil {
		return fromError[*models.SubscriptionConfig](nil, what, err)
	}
	cfg := &models.SubscriptionConfig{
		ID:                m.d.SubscriptionConfig.String(),
		BasicMonthlyPrice: f.U64Or("basic_monthly_price", 0),
		BasicYearlyPrice:  f.U64Or("basic_yearly_price", 0),
		ProMonthlyPrice:   f.U64Or("pro_monthly_price", 0),
		ProYearlyPrice:    f.U64Or("pro_yearly_price", 0),
	}
	if admin, err := f.Address("admin"); err == nil {
		cfg.Admin = admin.String()
	}
	return found(cfg)
}

// TierName is the display name of a subscription_type value.
func TierName(tier uint8) string {
	return models.SubscriptionTier(tier).Name()
}
