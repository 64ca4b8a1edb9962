package models

// SubscriptionTier is an organizer's plan.
type SubscriptionTier uint8

const (
	TierFree  SubscriptionTier = 0
	TierBasic SubscriptionTier = 1
	TierPro   SubscriptionTier = 2
)

// Name returns the display name, "Unknown" for anything unrecognized.
func (t SubscriptionTier) Name() string {
	switch t {
	case TierFree:
		return "Free"
	case TierBasic:
		return "Basic"
	case TierPro:
		return "Pro"
	default:
		return "Unknown"
	}
}

// UserSubscription is the subscription object an organizer owns
type UserSubscription struct {
	ID          string           `json:"id"`
	User        string           `json:"user"`
	Tier        SubscriptionTier `json:"subscription_type"`
	TierName    string           `json:"tier_name"`
	StartDate   uint64           `json:"start_date"`
	EndDate     uint64           `json:"end_date"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   uint64           `json:"created_at"`
	LastUpdated uint64           `json:"last_updated"`
}

// SubscriptionConfig holds the plan prices in MIST
type SubscriptionConfig struct {
	ID                string `json:"id"`
	BasicMonthlyPrice uint64 `json:"basic_monthly_price"`
	BasicYearlyPrice  uint64 `json:"basic_yearly_price"`
	ProMonthlyPrice   uint64 `json:"pro_monthly_price"`
	ProYearlyPrice    uint64 `json:"pro_yearly_price"`
	Admin             string `json:"admin"`
}
