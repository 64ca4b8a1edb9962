package models

// RegisterRequest builds a paid or free registration. The call is paid when
// the event has a fee and a payment coin is given.
type RegisterRequest struct {
	Wallet                  string `json:"wallet" binding:"required"`
	OrganizerSubscriptionID string `json:"organizer_subscription_id" binding:"required"`
	OrganizerProfileID      string `json:"organizer_profile_id" binding:"required"`
	PaymentCoinID           string `json:"payment_coin_id"`
}

// ConfirmRegistrationRequest reports a registration the wallet submitted
// and asks for the resulting pass.
type ConfirmRegistrationRequest struct {
	Wallet   string `json:"wallet" binding:"required"`
	TxDigest string `json:"tx_digest" binding:"required"`
}

// RegistrationResult is a confirmed pass ready to render as a QR code
type RegistrationResult struct {
	TxDigest string    `json:"tx_digest"`
	PassID   uint64    `json:"pass_id"`
	PassHash string    `json:"pass_hash"`
	QR       QRPayload `json:"qr"`
	QRData   string    `json:"qr_data"`
}

// FeeQuote tells the wallet what a paid registration costs
type FeeQuote struct {
	EventID   string `json:"event_id"`
	FeeAmount uint64 `json:"fee_amount"`
	Paid      bool   `json:"paid"`
	CoinID    string `json:"coin_id,omitempty"`
}
