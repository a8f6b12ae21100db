package attest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
	"github.com/courier-service/courier_service/pkg/poll"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxAttempts  = 30
)

// MessagesClient is the slice of the API client the waiter needs.
type MessagesClient interface {
	GetMessages(ctx context.Context, sourceDomain uint32, txHash string) (*MessagesResponse, error)
}

// Waiter turns the attestation poll into one bounded blocking operation. A
// not-found response means the attestation is not yet available and is
// retried; any other error aborts; exhausting the attempt ceiling surfaces
// as an attestation timeout.
type Waiter struct {
	client       MessagesClient
	pollInterval time.Duration
	maxAttempts  int
	logger       *zap.Logger
}

// WaiterOption customizes a Waiter.
type WaiterOption func(*Waiter)

// WithPollInterval overrides the poll interval.
func WithPollInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) { w.pollInterval = d }
}

// WithMaxAttempts overrides the attempt ceiling.
func WithMaxAttempts(n int) WaiterOption {
	return func(w *Waiter) { w.maxAttempts = n }
}

// NewWaiter creates a Waiter with the protocol's 10s/30-attempt policy.
func NewWaiter(client MessagesClient, logger *zap.Logger, opts ...WaiterOption) *Waiter {
	w := &Waiter{
		client:       client,
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitForAttestation blocks until the attestation for the burn identified by
// (sourceDomain, txHash) is complete, or the attempt ceiling is hit.
func (w *Waiter) WaitForAttestation(ctx context.Context, sourceDomain uint32, txHash string) (*entities.Attestation, error) {
	poller, err := poll.New(poll.Policy{
		Interval:    w.pollInterval,
		MaxAttempts: w.maxAttempts,
	}, w.logger)
	if err != nil {
		return nil, err
	}

	var result *entities.Attestation
	err = poller.Until(ctx, "attestation", func(ctx context.Context, attempt int) (poll.Outcome, error) {
		resp, err := w.client.GetMessages(ctx, sourceDomain, txHash)
		if err != nil {
			var apiErr *ErrorResponse
			switch {
			case errors.Is(err, ErrNoMessages):
				return poll.Pending, err
			case errors.As(err, &apiErr) && apiErr.IsNotFound():
				// Not indexed yet
				return poll.Pending, err
			default:
				return poll.Failed, domainerrors.Wrap(err, "attestation lookup")
			}
		}

		msg := resp.Messages[0]
		if msg.Status != StatusComplete {
			return poll.Pending, nil
		}

		result = &entities.Attestation{
			Message:     msg.Message,
			Attestation: msg.Attestation,
		}
		return poll.Done, nil
	})

	if err != nil {
		if errors.Is(err, poll.ErrMaxAttemptsExceeded) {
			w.logger.Warn("Attestation not available within polling window; the burn may still complete later",
				zap.Uint32("source_domain", sourceDomain),
				zap.String("tx_hash", txHash),
				zap.Int("attempts", w.maxAttempts))
			return nil, domainerrors.ErrAttestationTimeout
		}
		return nil, err
	}
	return result, nil
}
