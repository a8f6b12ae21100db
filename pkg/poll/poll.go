// Package poll provides the bounded poll-until-terminal primitive shared by
// transaction confirmation and the attestation wait. Each poll is modeled as
// an explicit state machine: pending → done | failed | timed out.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrMaxAttemptsExceeded is returned when the attempt ceiling is reached
// without the check reporting a terminal outcome.
var ErrMaxAttemptsExceeded = errors.New("max poll attempts exceeded")

// IsMaxAttempts reports whether err is an exhausted-attempts error.
func IsMaxAttempts(err error) bool {
	return errors.Is(err, ErrMaxAttemptsExceeded)
}

// Outcome is the classification a check returns for one attempt.
type Outcome int

const (
	// Pending means not ready yet; keep polling.
	Pending Outcome = iota
	// Done means the awaited condition was reached.
	Done
	// Failed means a terminal failure; the returned error aborts the poll.
	Failed
)

// Policy controls poll cadence and the attempt ceiling.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.Interval)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}
	return nil
}

// Check performs one attempt. A Failed outcome must carry the error to abort
// with; a Pending outcome may carry a retryable error, which is logged and
// otherwise ignored.
type Check func(ctx context.Context, attempt int) (Outcome, error)

// Poller runs checks against a policy.
type Poller struct {
	policy Policy
	logger *zap.Logger
}

// New creates a poller.
func New(policy Policy, logger *zap.Logger) (*Poller, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid poll policy: %w", err)
	}
	return &Poller{policy: policy, logger: logger}, nil
}

// Until runs the check every Interval until it reports Done or Failed, the
// context ends, or MaxAttempts is exhausted. The first attempt runs
// immediately. Exactly MaxAttempts attempts are issued, never more.
func (p *Poller) Until(ctx context.Context, name string, check Check) error {
	var lastErr error

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.policy.Interval):
			}
		}

		outcome, err := check(ctx, attempt)
		switch outcome {
		case Done:
			if attempt > 1 {
				p.logger.Debug("Poll completed",
					zap.String("operation", name),
					zap.Int("attempts", attempt))
			}
			return nil
		case Failed:
			p.logger.Warn("Poll reached failed state",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		default:
			lastErr = err
			if err != nil {
				p.logger.Debug("Poll attempt not ready",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
		}
	}

	p.logger.Warn("Poll exhausted attempts",
		zap.String("operation", name),
		zap.Int("max_attempts", p.policy.MaxAttempts),
		zap.Error(lastErr))
	if lastErr != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrMaxAttemptsExceeded, lastErr)
	}
	return fmt.Errorf("%s: %w", name, ErrMaxAttemptsExceeded)
}
