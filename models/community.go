package models

// NFT types that can admit community membership
const (
	NFTProofOfAttendance = "poa"
	NFTCompletion        = "completion"
)

// TimeLimit is how long community access lasts.
type TimeLimit uint8

const (
	TimeLimitPermanent     TimeLimit = 0
	TimeLimitEventDuration TimeLimit = 1
	TimeLimitCustom        TimeLimit = 2
)

func (t TimeLimit) String() string {
	switch t {
	case TimeLimitPermanent:
		return "permanent"
	case TimeLimitEventDuration:
		return "event_duration"
	case TimeLimitCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseTimeLimit accepts the names produced by String.
func ParseTimeLimit(s string) (TimeLimit, bool) {
	switch s {
	case "", "permanent":
		return TimeLimitPermanent, true
	case "event_duration":
		return TimeLimitEventDuration, true
	case "custom":
		return TimeLimitCustom, true
	default:
		return 0, false
	}
}

// AccessRequirements decide who may join a community
type AccessRequirements struct {
	NFTTypes       []string `json:"nft_types"`
	MinimumRating  *uint64  `json:"minimum_rating,omitempty"`
	TimeLimit      string   `json:"time_limit"`
	CustomDuration uint64   `json:"custom_duration,omitempty"`
}

// CommunityFeatures are the sections a community enables
type CommunityFeatures struct {
	Forum      bool `json:"forum"`
	Resources  bool `json:"resources"`
	Calendar   bool `json:"calendar"`
	Directory  bool `json:"directory"`
	Governance bool `json:"governance"`
}

// Community is a token-gated space attached to an event
type Community struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	AccessRequirements AccessRequirements `json:"access_requirements"`
	Features           CommunityFeatures  `json:"features"`
	Moderators         []string           `json:"moderators"`
	CreatedAt          uint64             `json:"created_at"`
	Active             bool               `json:"active"`
}

// CommunityConfig describes a new community
type CommunityConfig struct {
	Name               string             `json:"name" binding:"required"`
	Description        string             `json:"description"`
	AccessRequirements AccessRequirements `json:"access_requirements"`
	Features           CommunityFeatures  `json:"features"`
	Moderators         []string           `json:"moderators"`
}
