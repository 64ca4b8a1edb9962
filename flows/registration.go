package flows

import (
	"context"
	"fmt"
	"log"
	"time"

	"ariya-backend/contracts"
	"ariya-backend/models"
)

const registrationFlow = "registration"

// EventFees reads an event's registration fee. *contracts.EventManagement
// implements it.
type EventFees interface {
	GetEventFeeAmount(ctx context.Context, event contracts.Address) contracts.Result[uint64]
}

// RegisterInput identifies the registration to perform. Coin is the payment
// coin for paid events and may be nil.
type RegisterInput struct {
	Event        contracts.Address
	Wallet       contracts.Address
	Subscription contracts.Address
	Profile      contracts.Address
	Coin         *contracts.Address
}

// RegistrationFlow registers a wallet for an event and turns the resulting
// pass into a QR payload.
type RegistrationFlow struct {
	identity *contracts.IdentityAccess
	fees     EventFees
	chain    Confirmer
	settings
}

func NewRegistrationFlow(identity *contracts.IdentityAccess, fees EventFees, chain Confirmer, opts ...Option) *RegistrationFlow {
	return &RegistrationFlow{
		identity: identity,
		fees:     fees,
		chain:    chain,
		settings: newSettings(opts),
	}
}

// Build returns the registration transaction: paid when the event charges a
// fee and a coin was given, free otherwise.
func (f *RegistrationFlow) Build(ctx context.Context, in RegisterInput) (*contracts.Transaction, uint64, error) {
	fee, err := f.fees.GetEventFeeAmount(ctx, in.Event).Unwrap()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read fee of event %s: %w", in.Event, err)
	}
	if fee > 0 && in.Coin != nil {
		return f.identity.RegisterForEvent(in.Event, in.Subscription, in.Profile, *in.Coin), fee, nil
	}
	return f.identity.RegisterForFreeEvent(in.Event, in.Subscription, in.Profile), fee, nil
}

// RegisterAndGenerateQR runs build, submit, finality, pass and hash in order.
// It never returns a partial result: the pass id always comes from the
// confirmed transaction. A SubmittedDigest signer goes straight to Confirm
// since the registration is already on chain.
func (f *RegistrationFlow) RegisterAndGenerateQR(ctx context.Context, in RegisterInput, signer Signer) (*models.RegistrationResult, error) {
	if d, ok := signer.(SubmittedDigest); ok {
		return f.Confirm(ctx, in, string(d))
	}
	tx, _, err := f.Build(ctx, in)
	if err != nil {
		return nil, stepFailed(registrationFlow, StepBuild, err)
	}
	stepDone(registrationFlow, StepBuild)

	digest, block, err := submit(ctx, registrationFlow, signer, f.chain, tx)
	if err != nil {
		return nil, err
	}
	return f.issue(in, digest, block)
}

// Confirm waits for a registration the wallet already executed and turns its
// pass into a QR payload. Nothing is rebuilt and the fee is not read.
func (f *RegistrationFlow) Confirm(ctx context.Context, in RegisterInput, digest string) (*models.RegistrationResult, error) {
	digest, block, err := submit(ctx, registrationFlow, SubmittedDigest(digest), f.chain, nil)
	if err != nil {
		return nil, err
	}
	return f.issue(in, digest, block)
}

// issue runs the pass and hash steps. The QR issue time is taken from the
// pass expiry on chain when the event carries one, so the QR expires with
// the pass.
func (f *RegistrationFlow) issue(in RegisterInput, digest string, block *contracts.TransactionBlock) (*models.RegistrationResult, error) {
	reg, ok := contracts.FindPassInTransaction(block, in.Event, in.Wallet)
	if !ok {
		return nil, stepFailed(registrationFlow, StepPass, fmt.Errorf("%w: %s", ErrPassNotFound, digest))
	}
	stepDone(registrationFlow, StepPass)

	issued := f.now()
	if reg.RegisteredAt > 0 {
		issued = time.UnixMilli(int64(reg.RegisteredAt))
	}
	q := models.NewQRPayload(in.Event.String(), reg.PassID, in.Wallet.String(), reg.PassHash, issued)
	data, err := q.Encode()
	if err != nil {
		return nil, stepFailed(registrationFlow, StepHash, err)
	}
	stepDone(registrationFlow, StepHash)

	log.Printf("Registered wallet %s for event %s: pass %d (tx %s)", in.Wallet.Short(10), in.Event.Short(10), reg.PassID, digest)
	return &models.RegistrationResult{
		TxDigest: digest,
		PassID:   reg.PassID,
		PassHash: reg.PassHash,
		QR:       q,
		QRData:   data,
	}, nil
}
