package models

import "time"

// DistributionType is how an airdrop pool is split.
type DistributionType uint8

const (
	DistributionEqual              DistributionType = 0
	DistributionWeightedByDuration DistributionType = 1
	DistributionCompletionBonus    DistributionType = 2
)

func (d DistributionType) Valid() bool { return d <= DistributionCompletionBonus }

// EligibilityCriteria are the conditions a wallet must meet to claim.
// MinDuration is in milliseconds.
type EligibilityCriteria struct {
	RequireAttendance      bool   `json:"require_attendance"`
	RequireCompletion      bool   `json:"require_completion"`
	MinDuration            uint64 `json:"min_duration"`
	RequireRatingSubmitted bool   `json:"require_rating_submitted"`
}

// AirdropConfig describes a new airdrop
type AirdropConfig struct {
	Name             string              `json:"name" binding:"required"`
	Description      string              `json:"description"`
	DistributionType DistributionType    `json:"distribution_type"`
	Eligibility      EligibilityCriteria `json:"eligibility"`
	ValidityDays     uint64              `json:"validity_days"`
}

// AirdropDetails is the registry view of an airdrop
type AirdropDetails struct {
	ID               string              `json:"id"`
	EventID          string              `json:"event_id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	PoolBalance      uint64              `json:"pool_balance"`
	ClaimedCount     uint64              `json:"claimed_count"`
	TotalRecipients  uint64              `json:"total_recipients"`
	ExpiresAt        uint64              `json:"expires_at"`
	Active           bool                `json:"active"`
	DistributionType DistributionType    `json:"distribution_type"`
	Eligibility      EligibilityCriteria `json:"eligibility"`
}

// ClaimStatus is a wallet's claim on one airdrop
type ClaimStatus struct {
	Claimed bool   `json:"claimed"`
	Amount  uint64 `json:"amount"`
}

// ClaimRecord is one past claim
type ClaimRecord struct {
	AirdropID string `json:"airdrop_id"`
	EventID   string `json:"event_id"`
	Amount    uint64 `json:"amount"`
	ClaimedAt uint64 `json:"claimed_at"`
}

// CreateAirdropRequest for building a create_airdrop call
type CreateAirdropRequest struct {
	AirdropConfig
	PaymentCoinID string `json:"payment_coin_id" binding:"required"`
}

// BatchDistributeRequest lists explicit recipients
type BatchDistributeRequest struct {
	Recipients []string `json:"recipients" binding:"required"`
}

// PreviewEligibilityRequest runs criteria over an event's registrations.
// Ratings are not on chain, so the caller lists the wallets that rated.
type PreviewEligibilityRequest struct {
	Criteria     EligibilityCriteria `json:"criteria"`
	RatedWallets []string            `json:"rated_wallets"`
}

// EligibilityCandidate is one wallet put through the preview
type EligibilityCandidate struct {
	Attendance AttendanceRecord `json:"attendance"`
	Rated      bool             `json:"rated"`
}

// EligibilityResult is the preview outcome for one wallet
type EligibilityResult struct {
	Wallet   string `json:"wallet"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// EligibilityPreview summarizes who would qualify for an airdrop
type EligibilityPreview struct {
	Results       []EligibilityResult `json:"results"`
	EligibleCount int                 `json:"eligible_count"`
	CanCreate     bool                `json:"can_create"`
}

// Check mirrors the contract's eligibility rules for one wallet. It is a
// preview only; the contract decides at claim time.
func (c EligibilityCriteria) Check(rec AttendanceRecord, rated bool) (bool, string) {
	if c.RequireAttendance && rec.State < AttendanceCheckedIn {
		return false, "not checked in"
	}
	if c.RequireCompletion && rec.State != AttendanceCheckedOut {
		return false, "not checked out"
	}
	if c.MinDuration > 0 {
		if rec.State != AttendanceCheckedOut {
			return false, "no check-out recorded"
		}
		if rec.Duration() < time.Duration(c.MinDuration)*time.Millisecond {
			return false, "attended less than the minimum duration"
		}
	}
	if c.RequireRatingSubmitted && !rated {
		return false, "no rating submitted"
	}
	return true, ""
}

// Preview runs Check over every candidate. Creating the airdrop only makes
// sense when at least one wallet qualifies.
func (c EligibilityCriteria) Preview(candidates []EligibilityCandidate) EligibilityPreview {
	out := EligibilityPreview{Results: make([]EligibilityResult, 0, len(candidates))}
	for _, cand := range candidates {
		ok, reason := c.Check(cand.Attendance, cand.Rated)
		out.Results = append(out.Results, EligibilityResult{
			Wallet:   cand.Attendance.Wallet,
			Eligible: ok,
			Reason:   reason,
		})
		if ok {
			out.EligibleCount++
		}
	}
	out.CanCreate = out.EligibleCount > 0
	return out
}
