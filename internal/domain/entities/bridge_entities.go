package entities

import (
	"github.com/shopspring/decimal"
)

// BridgeStep names the stage a cross-chain transfer is in. Steps execute
// strictly in order; no step begins before the prior one confirms on chain.
type BridgeStep string

const (
	StepApprove BridgeStep = "approve"
	StepBurn    BridgeStep = "burn"
	StepAttest  BridgeStep = "attest"
	StepReceive BridgeStep = "receive"
)

// TransferRequest describes one bridge operation. It exists only for the
// duration of a single orchestration call and is never persisted.
type TransferRequest struct {
	SourceWalletID      string          `json:"source_wallet_id"`
	SourceChain         WalletChain     `json:"source_chain"`
	DestinationChain    WalletChain     `json:"destination_chain"`
	DestinationAddress  string          `json:"destination_address"`
	DestinationWalletID string          `json:"destination_wallet_id"`
	Amount              decimal.Decimal `json:"amount"`
}

// BridgeReceipt holds the three on-chain transaction identifiers produced by
// one completed transfer. Ids are filled in as steps confirm, so a caller
// that receives an error alongside a partially filled receipt can tell which
// steps completed (there is no rollback).
type BridgeReceipt struct {
	ApproveTxID string `json:"approve_tx_id"`
	BurnTxID    string `json:"burn_tx_id"`
	BurnTxHash  string `json:"burn_tx_hash"`
	ReceiveTxID string `json:"receive_tx_id"`
}

// Attestation is the off-chain signed proof that a burn occurred, required
// before the destination chain will mint.
type Attestation struct {
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
}
