// Package repositories declares the persistence contracts this core consumes.
// The surrounding service owns the store; this library never touches a
// database directly.
package repositories

import (
	"context"

	"github.com/google/uuid"
)

// UserProfileStore persists the provider-side resource ids acquired during a
// deposit so repeat deposits can reuse them instead of re-creating provider
// records. The store is expected to provide the atomicity of its own writes;
// this core only performs check-then-act reuse on top of it.
type UserProfileStore interface {
	SetBankAccountID(ctx context.Context, userID uuid.UUID, bankAccountID string) error
	SetRecipientAddressID(ctx context.Context, userID uuid.UUID, recipientID string) error
}
