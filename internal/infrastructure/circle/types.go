package circle

import (
	"fmt"
	"time"

	"github.com/courier-service/courier_service/internal/domain/entities"
)

// WalletCreateRequest creates a developer-controlled wallet on one blockchain.
type WalletCreateRequest struct {
	IdempotencyKey string   `json:"idempotencyKey"`
	WalletSetID    string   `json:"walletSetId"`
	Blockchains    []string `json:"blockchains"`
	AccountType    string   `json:"accountType,omitempty"`
	Count          int      `json:"count,omitempty"`
}

// WalletCreateResponse is the provider's wallet payload.
type WalletCreateResponse struct {
	Data struct {
		Wallets []WalletData `json:"wallets"`
	} `json:"data"`
}

// WalletData is one custodial wallet record.
type WalletData struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Blockchain string `json:"blockchain"`
	State      string `json:"state"`
}

// BalancesResponse lists token balances for a wallet.
type BalancesResponse struct {
	Data struct {
		TokenBalances []TokenBalance `json:"tokenBalances"`
	} `json:"data"`
}

// TokenBalance is one token's balance entry.
type TokenBalance struct {
	Amount string `json:"amount"`
	Token  struct {
		ID       string `json:"id"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"token"`
}

// USDCBalance returns the USDC amount string, or "0" when absent.
func (r *BalancesResponse) USDCBalance() string {
	for _, b := range r.Data.TokenBalances {
		if b.Token.Symbol == "USDC" {
			return b.Amount
		}
	}
	return "0"
}

// TransferRequest submits a direct token transfer from a wallet.
type TransferRequest struct {
	IdempotencyKey     string   `json:"idempotencyKey"`
	WalletID           string   `json:"walletId"`
	TokenID            string   `json:"tokenId"`
	DestinationAddress string   `json:"destinationAddress"`
	Amounts            []string `json:"amounts"`
	FeeLevel           string   `json:"feeLevel,omitempty"`
}

// ContractExecutionRequest submits an arbitrary contract call from a wallet.
type ContractExecutionRequest struct {
	IdempotencyKey       string   `json:"idempotencyKey"`
	WalletID             string   `json:"walletId"`
	ContractAddress      string   `json:"contractAddress"`
	ABIFunctionSignature string   `json:"abiFunctionSignature"`
	ABIParameters        []any    `json:"abiParameters"`
	FeeLevel             string   `json:"feeLevel,omitempty"`
}

// TransactionResponse is returned by transaction submission endpoints.
type TransactionResponse struct {
	Data struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"data"`
}

// TransactionStatusResponse is the provider's transaction record.
type TransactionStatusResponse struct {
	Data struct {
		Transaction struct {
			ID               string  `json:"id"`
			State            string  `json:"state"`
			TxHash           string  `json:"txHash"`
			Blockchain       string  `json:"blockchain"`
			FirstConfirmDate *string `json:"firstConfirmDate"`
		} `json:"transaction"`
	} `json:"data"`
}

// Status maps the provider record onto the core's three-state view.
func (r *TransactionStatusResponse) Status() entities.TransactionStatus {
	tx := r.Data.Transaction
	status := entities.TransactionStatus{
		TransactionID: tx.ID,
		TxHash:        tx.TxHash,
		Chain:         entities.WalletChain(tx.Blockchain),
		State:         mapState(tx.State),
	}
	if tx.FirstConfirmDate != nil {
		if t, err := time.Parse(time.RFC3339, *tx.FirstConfirmDate); err == nil {
			status.ConfirmedAt = &t
		}
	}
	return status
}

func mapState(state string) entities.TxState {
	switch state {
	case "CONFIRMED", "COMPLETE":
		return entities.TxStateConfirmed
	case "FAILED", "DENIED", "CANCELLED":
		return entities.TxStateFailed
	default:
		return entities.TxStatePending
	}
}

// ErrorResponse is the provider's error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is a typed provider error with retry classification.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wallet provider error [%d]: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
}

// IsRetryable reports whether the request can safely be reissued.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode == 429 || e.StatusCode == 408 {
		return true
	}
	return e.StatusCode >= 500
}
