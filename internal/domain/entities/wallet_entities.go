package entities

import (
	"time"

	"github.com/google/uuid"
)

// WalletChain identifies a blockchain network using the wallet provider's
// network naming (testnet identifiers).
type WalletChain string

const (
	ChainEthSepolia  WalletChain = "ETH-SEPOLIA"
	ChainBaseSepolia WalletChain = "BASE-SEPOLIA"
	ChainArbSepolia  WalletChain = "ARB-SEPOLIA"
	ChainMaticAmoy   WalletChain = "MATIC-AMOY"
	ChainAvaxFuji    WalletChain = "AVAX-FUJI"
	ChainOpSepolia   WalletChain = "OP-SEPOLIA"
)

// Wallet represents a custodial account on one network. Wallets are created
// lazily on first need and never mutated afterwards.
type Wallet struct {
	WalletID string      `json:"wallet_id"`
	Address  string      `json:"address"`
	Chain    WalletChain `json:"chain"`
}

// TxState classifies a submitted transaction's lifecycle state.
type TxState string

const (
	TxStatePending   TxState = "pending"
	TxStateConfirmed TxState = "confirmed"
	TxStateFailed    TxState = "failed"
)

// Terminal reports whether the state is final.
func (s TxState) Terminal() bool {
	return s == TxStateConfirmed || s == TxStateFailed
}

// TransactionStatus is the wallet provider's view of a submitted transaction.
type TransactionStatus struct {
	TransactionID string      `json:"transaction_id"`
	State         TxState     `json:"state"`
	TxHash        string      `json:"tx_hash"`
	Chain         WalletChain `json:"chain,omitempty"`
	ConfirmedAt   *time.Time  `json:"confirmed_at,omitempty"`
}

// UserProfile carries the user fields this core reads and writes. The bank
// account and recipient ids are provider-side resources reused across
// deposits; the external store owns their persistence.
type UserProfile struct {
	ID                 uuid.UUID   `json:"id"`
	ConversationID     string      `json:"conversation_id"`
	DisplayName        string      `json:"display_name"`
	PrimaryChain       WalletChain `json:"primary_chain"`
	BankAccountID      string      `json:"bank_account_id,omitempty"`
	RecipientAddressID string      `json:"recipient_address_id,omitempty"`
}
