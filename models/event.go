package models

// EventState is the on-chain lifecycle of an event.
type EventState uint8

// Event state constants
const (
	EventCreated   EventState = 0
	EventActive    EventState = 1
	EventCompleted EventState = 2
	EventSettled   EventState = 3
)

func (s EventState) String() string {
	switch s {
	case EventCreated:
		return "created"
	case EventActive:
		return "active"
	case EventCompleted:
		return "completed"
	case EventSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Open reports whether the event still accepts registrations or is about to.
func (s EventState) Open() bool {
	return s == EventCreated || s == EventActive
}

// CustomBenchmark is an organizer-defined sponsor target
type CustomBenchmark struct {
	Description  string `json:"description"`
	TargetValue  uint64 `json:"target_value"`
	CurrentValue uint64 `json:"current_value"`
}

// SponsorConditions are the thresholds sponsors attach to an event
type SponsorConditions struct {
	MinAttendees      uint64            `json:"min_attendees"`
	MinCompletionRate uint64            `json:"min_completion_rate"`
	MinAvgRating      uint64            `json:"min_avg_rating"`
	CustomBenchmarks  []CustomBenchmark `json:"custom_benchmarks"`
}

// Event is the on-chain event object. Times are unix milliseconds.
type Event struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Location          string            `json:"location"`
	StartTime         uint64            `json:"start_time"`
	EndTime           uint64            `json:"end_time"`
	Capacity          uint64            `json:"capacity"`
	CurrentAttendees  uint64            `json:"current_attendees"`
	Organizer         string            `json:"organizer"`
	State             EventState        `json:"state"`
	CreatedAt         uint64            `json:"created_at"`
	SponsorConditions SponsorConditions `json:"sponsor_conditions"`
	MetadataURI       string            `json:"metadata_uri"`
	FeeAmount         uint64            `json:"fee_amount"`
}

// EventInfo is the list view of an event
type EventInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Organizer string     `json:"organizer"`
	StartTime uint64     `json:"start_time"`
	State     EventState `json:"state"`
}

// OrganizerProfile is the organizer's public on-chain profile
type OrganizerProfile struct {
	ID                   string `json:"id"`
	Address              string `json:"address"`
	Name                 string `json:"name"`
	Bio                  string `json:"bio"`
	TotalEvents          uint64 `json:"total_events"`
	SuccessfulEvents     uint64 `json:"successful_events"`
	TotalAttendeesServed uint64 `json:"total_attendees_served"`
	AvgRating            uint64 `json:"avg_rating"`
	CreatedAt            uint64 `json:"created_at"`
}

// OrganizerCap is the capability object held in the organizer's wallet
type OrganizerCap struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
}

// CreateOrganizerProfileRequest for building a create_organizer_profile call
type CreateOrganizerProfileRequest struct {
	Name      string `json:"name" binding:"required"`
	Bio       string `json:"bio"`
	Recipient string `json:"recipient" binding:"required"`
}

// CreateEventRequest for building a create_event call
type CreateEventRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	Location           string `json:"location"`
	StartTime          uint64 `json:"start_time" binding:"required"`
	EndTime            uint64 `json:"end_time" binding:"required"`
	Capacity           uint64 `json:"capacity"`
	FeeAmount          uint64 `json:"fee_amount"`
	MinAttendees       uint64 `json:"min_attendees"`
	MinCompletionRate  uint64 `json:"min_completion_rate"`
	MinAvgRating       uint64 `json:"min_avg_rating"`
	MetadataURI        string `json:"metadata_uri"`
	OrganizerProfileID string `json:"organizer_profile_id" binding:"required"`
}

// CompleteEventRequest names the organizer profile credited on completion
type CompleteEventRequest struct {
	OrganizerProfileID string `json:"organizer_profile_id" binding:"required"`
}

// SetEventMetadataRequest for building an nft_minting::set_event_metadata call
type SetEventMetadataRequest struct {
	Name      string `json:"name" binding:"required"`
	URI       string `json:"uri"`
	Location  string `json:"location"`
	Organizer string `json:"organizer" binding:"required"`
}
