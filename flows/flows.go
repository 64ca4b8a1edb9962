// Package flows sequences the multi-step chain operations: build a
// transaction, hand it to a wallet, wait for finality and read the outcome.
package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ariya-backend/contracts"
	"ariya-backend/metrics"
)

// Step names a stage of a flow.
type Step string

const (
	StepValidate Step = "validate"
	StepBuild    Step = "build"
	StepSubmit   Step = "submit"
	StepFinality Step = "finality"
	StepPass     Step = "pass"
	StepHash     Step = "hash"
	StepRecord   Step = "record"
)

var (
	ErrNoDigest      = errors.New("no transaction digest")
	ErrPassNotFound  = errors.New("no pass generated for wallet in transaction")
	ErrEventMismatch = errors.New("pass belongs to a different event")
)

// StepError is a flow that stopped at Step. Nothing after Step ran.
type StepError struct {
	Flow string
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Flow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Signer signs and executes a transaction with the user's wallet and returns
// its digest.
type Signer interface {
	SignAndExecute(ctx context.Context, tx *contracts.Transaction) (string, error)
}

// SubmittedDigest is a transaction the browser wallet already executed. The
// built transaction is ignored and the digest is used as is.
type SubmittedDigest string

func (d SubmittedDigest) SignAndExecute(_ context.Context, _ *contracts.Transaction) (string, error) {
	digest := strings.TrimSpace(string(d))
	if digest == "" {
		return "", ErrNoDigest
	}
	return digest, nil
}

// Confirmer waits for a digest to reach finality. *contracts.Client
// implements it.
type Confirmer interface {
	WaitForTransaction(ctx context.Context, digest string) (*contracts.TransactionBlock, error)
}

type settings struct {
	now func() time.Time
}

// Option configures a flow.
type Option func(*settings)

// WithClock overrides time.Now, e.g. in tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func stepFailed(flow string, step Step, err error) error {
	metrics.FlowSteps.WithLabelValues(flow, string(step), "error").Inc()
	return &StepError{Flow: flow, Step: step, Err: err}
}

func stepDone(flow string, step Step) {
	metrics.FlowSteps.WithLabelValues(flow, string(step), "ok").Inc()
}

// submit runs the submit and finality steps shared by every flow.
func submit(ctx context.Context, flow string, signer Signer, chain Confirmer, tx *contracts.Transaction) (string, *contracts.TransactionBlock, error) {
	if signer == nil {
		return "", nil, stepFailed(flow, StepSubmit, errors.New("no signer"))
	}
	digest, err := signer.SignAndExecute(ctx, tx)
	if err != nil {
		return "", nil, stepFailed(flow, StepSubmit, err)
	}
	stepDone(flow, StepSubmit)

	block, err := chain.WaitForTransaction(ctx, digest)
	if err != nil {
		return digest, nil, stepFailed(flow, StepFinality, err)
	}
	stepDone(flow, StepFinality)
	return digest, block, nil
}
