// Package errors provides the error taxonomy for the bridge core. Errors
// propagate unmodified to the chat-command layer, which translates them into
// user-facing text.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories
var (
	// ErrChainNotConfigured indicates a network has no complete registry entry
	ErrChainNotConfigured = errors.New("chain not configured")

	// ErrTransactionFailed indicates an on-chain transaction reached a failed
	// terminal state
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrConfirmationTimeout indicates a transaction did not reach a terminal
	// state within the polling ceiling
	ErrConfirmationTimeout = errors.New("confirmation timed out")

	// ErrAttestationTimeout indicates the attestation was not available within
	// the bounded polling window; the burn may still complete later and should
	// be checked manually
	ErrAttestationTimeout = errors.New("attestation timed out")

	// ErrProviderDegraded indicates the on-ramp provider rejected a transfer;
	// the flow carries an actionable fallback instead of a bare failure
	ErrProviderDegraded = errors.New("on-ramp provider degraded")

	// ErrInvalidAmount indicates an amount that is not positive or not
	// representable at the stablecoin's 6-decimal precision
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidAddress indicates a malformed destination address
	ErrInvalidAddress = errors.New("invalid address")
)

// TransactionFailedError reports which transfer step's transaction failed.
// Partial progress is not rolled back; the receipt returned alongside this
// error carries the ids of the steps that did confirm.
type TransactionFailedError struct {
	Step          string
	TransactionID string
	TxHash        string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s transaction %s failed", e.Step, e.TransactionID)
}

func (e *TransactionFailedError) Unwrap() error {
	return ErrTransactionFailed
}

// ProviderDegradedError carries the faucet fallback the chat layer surfaces
// when the on-ramp provider cannot pay out to the user's wallet.
type ProviderDegradedError struct {
	WalletAddress string
	Cause         error
}

func (e *ProviderDegradedError) Error() string {
	return fmt.Sprintf("provider transfer rejected, fund wallet %s from an external faucet instead: %v",
		e.WalletAddress, e.Cause)
}

func (e *ProviderDegradedError) Unwrap() error {
	return ErrProviderDegraded
}

// ChainNotConfiguredError names the network missing from the registry.
type ChainNotConfiguredError struct {
	Chain string
}

func (e *ChainNotConfiguredError) Error() string {
	return fmt.Sprintf("no bridge configuration for chain %q", e.Chain)
}

func (e *ChainNotConfiguredError) Unwrap() error {
	return ErrChainNotConfigured
}

// IsTransactionFailed checks if an error is a failed-transaction error
func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsAttestationTimeout checks if an error is an attestation timeout
func IsAttestationTimeout(err error) bool {
	return errors.Is(err, ErrAttestationTimeout)
}

// IsProviderDegraded checks if an error carries the faucet fallback path
func IsProviderDegraded(err error) bool {
	return errors.Is(err, ErrProviderDegraded)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
