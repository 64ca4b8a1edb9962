package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every route handler. Uploads may be nil when no upload
// backend is configured.
type Handlers struct {
	Events        *EventHandler
	Users         *UserHandler
	Registrations *RegistrationHandler
	Checkins      *CheckinHandler
	Airdrops      *AirdropHandler
	Communities   *CommunityHandler
	Subscriptions *SubscriptionHandler
	Uploads       *UploadHandler
}

// RegisterRoutes mounts the API on api, normally the /api/v1 group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	// Profile routes
	api.POST("/profiles", h.Users.CreateProfile)
	api.GET("/profiles/:walletAddress", h.Users.GetProfile)
	api.GET("/profiles/:walletAddress/status", h.Users.GetProfileStatus)
	api.GET("/profiles/by-id/:id", h.Users.GetProfileByID)

	// Organizer routes
	api.POST("/organizers", h.Events.CreateOrganizerProfile)
	api.GET("/organizers", h.Events.GetOrganizers)
	api.GET("/organizers/:address/cap", h.Events.GetOrganizerCap)
	api.GET("/organizers/:address/events", h.Events.GetOrganizerEvents)
	api.GET("/organizer-profiles/:id", h.Events.GetOrganizerProfile)

	// Event routes
	api.POST("/events", h.Events.CreateEvent)
	api.GET("/events", h.Events.GetEvents)
	api.GET("/events/:id", h.Events.GetEvent)
	api.DELETE("/events/:id", h.Events.DeleteEvent)
	api.GET("/events/:id/fee", h.Events.GetEventFee)
	api.POST("/events/:id/activate", h.Events.ActivateEvent)
	api.POST("/events/:id/complete", h.Events.CompleteEvent)
	api.POST("/events/:id/metadata", h.Events.SetEventMetadata)
	api.GET("/events/:id/stats", h.Events.GetEventStats)
	api.GET("/events/:id/attendees", h.Events.GetEventAttendees)
	api.GET("/events/:id/nft-status", h.Events.GetNFTStatus)

	// Event registration routes
	api.POST("/events/:id/register", h.Registrations.RegisterUser)
	api.POST("/events/:id/register/confirm", h.Registrations.ConfirmRegistration)
	api.GET("/events/:id/registration/:wallet", h.Registrations.GetUserRegistration)
	api.GET("/events/:id/organizer/:wallet", h.Registrations.IsEventOrganizer)

	// Checkin routes
	api.POST("/events/:id/checkin/qr", h.Checkins.CheckInWithQR)
	api.POST("/events/:id/checkin/pass", h.Checkins.CheckInWithPass)
	api.POST("/events/:id/checkin/confirm", h.Checkins.ConfirmCheckin)
	api.POST("/events/:id/checkout", h.Checkins.CheckOut)
	api.GET("/events/:id/checkins", h.Checkins.GetCheckins)
	api.GET("/events/:id/attendance/:wallet", h.Checkins.GetAttendance)
	api.GET("/events/:id/proof/:wallet", h.Checkins.GetProofOfAttendance)
	api.POST("/checkin/verify", h.Checkins.VerifyPass)

	// Airdrop routes
	api.POST("/events/:id/airdrops", h.Airdrops.CreateAirdrop)
	api.GET("/events/:id/airdrops", h.Airdrops.GetEventAirdrops)
	api.POST("/events/:id/airdrops/preview", h.Airdrops.PreviewEligibility)
	api.GET("/airdrops/:airdropId", h.Airdrops.GetAirdrop)
	api.POST("/airdrops/:airdropId/claim", h.Airdrops.ClaimAirdrop)
	api.POST("/airdrops/:airdropId/distribute", h.Airdrops.BatchDistribute)
	api.POST("/airdrops/:airdropId/withdraw", h.Airdrops.WithdrawUnclaimed)
	api.GET("/airdrops/:airdropId/claims/:wallet", h.Airdrops.GetClaimStatus)
	api.GET("/airdrops/:airdropId/eligibility/:wallet", h.Airdrops.IsEligible)

	// Community routes
	api.POST("/events/:id/communities", h.Communities.CreateCommunity)
	api.GET("/events/:id/communities", h.Communities.GetEventCommunities)
	api.GET("/communities", h.Communities.GetAllCommunities)
	api.GET("/communities/:communityId", h.Communities.GetCommunity)
	api.POST("/communities/:communityId/access", h.Communities.RequestAccess)
	api.GET("/communities/:communityId/access/:wallet", h.Communities.CheckAccess)

	// Subscription routes
	api.GET("/subscriptions/config", h.Subscriptions.GetConfig)
	api.GET("/subscriptions/:id", h.Subscriptions.GetSubscriptionByID)

	// Wallet routes
	api.GET("/wallets/:wallet/checkins", h.Checkins.GetWalletCheckins)
	api.GET("/wallets/:wallet/claims", h.Airdrops.GetUserClaims)
	api.GET("/wallets/:wallet/subscription", h.Subscriptions.GetUserSubscription)
	api.GET("/wallets/:wallet/subscription/active", h.Subscriptions.HasActiveSubscription)

	if h.Uploads != nil {
		api.POST("/uploads/walrus", h.Uploads.UploadBlob)
		api.GET("/uploads/walrus/resolve", h.Uploads.ResolveBlob)
		api.POST("/uploads/image", h.Uploads.UploadImage)
	}
}
