package models

// UserProfile is an attendee's on-chain profile
type UserProfile struct {
	ID               string `json:"id"`
	Address          string `json:"address"`
	Name             string `json:"name"`
	Bio              string `json:"bio"`
	PhotoURL         string `json:"photo_url"`
	TelegramUsername string `json:"telegram_username"`
	XUsername        string `json:"x_username"`
	CreatedAt        uint64 `json:"created_at"`
}

// CreateProfileRequest for building a create_profile call
type CreateProfileRequest struct {
	Name             string `json:"name" binding:"required"`
	Bio              string `json:"bio"`
	PhotoURL         string `json:"photo_url"`
	TelegramUsername string `json:"telegram_username"`
	XUsername        string `json:"x_username"`
	Recipient        string `json:"recipient" binding:"required"`
}

// ProfileStatus answers the registry shortcuts for a wallet. It is a UX hint;
// the contract re-checks on every call.
type ProfileStatus struct {
	Address             string `json:"address"`
	HasProfile          bool   `json:"has_profile"`
	HasOrganizerProfile bool   `json:"has_organizer_profile"`
	ProfileID           string `json:"profile_id,omitempty"`
}
