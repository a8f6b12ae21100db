// Package deposit drives the mocked fiat on-ramp pipeline: a simulated bank
// wire lands as USDC on a bridge-accessible network, then the cross-chain
// transfer orchestrator moves it to the user's primary network.
package deposit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
	"github.com/courier-service/courier_service/internal/domain/repositories"
	"github.com/courier-service/courier_service/internal/domain/services/notify"
	"github.com/courier-service/courier_service/internal/infrastructure/adapters/onramp"
	"github.com/courier-service/courier_service/pkg/metrics"
)

const defaultSettleDelay = 10 * time.Second

// Synthesized billing details for the mock bank account. The sandbox
// provider accepts these fixed values.
const (
	mockAccountNumber = "12340010"
	mockRoutingNumber = "121000248"
)

// OnRampProvider is the slice of the on-ramp client this pipeline needs.
type OnRampProvider interface {
	CreateBankAccount(ctx context.Context, req onramp.CreateBankAccountRequest) (string, error)
	GetWireInstructions(ctx context.Context, bankAccountID string) (*onramp.WireInstructionsResponse, error)
	SubmitMockWire(ctx context.Context, req onramp.MockWireRequest) error
	CreateRecipientAddress(ctx context.Context, req onramp.CreateRecipientRequest) (string, error)
	CreateProviderTransfer(ctx context.Context, req onramp.ProviderTransferRequest) (string, error)
}

// TransferOrchestrator performs the cross-chain leg after funds settle.
type TransferOrchestrator interface {
	Transfer(ctx context.Context, conversationID string, req entities.TransferRequest) (*entities.BridgeReceipt, error)
}

// Service is the fiat on-ramp orchestrator.
type Service struct {
	provider    OnRampProvider
	store       repositories.UserProfileStore
	transferSvc TransferOrchestrator
	notifier    notify.Notifier
	settleDelay time.Duration
	logger      *zap.Logger

	// group serializes provider-resource creation per user so two
	// concurrent deposits cannot race the check-then-act and create
	// duplicate provider records.
	group singleflight.Group
}

// NewService creates the deposit orchestrator.
func NewService(
	provider OnRampProvider,
	store repositories.UserProfileStore,
	transferSvc TransferOrchestrator,
	notifier notify.Notifier,
	settleDelay time.Duration,
	logger *zap.Logger,
) *Service {
	if settleDelay < 0 {
		settleDelay = defaultSettleDelay
	}
	return &Service{
		provider:    provider,
		store:       store,
		transferSvc: transferSvc,
		notifier:    notifier,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// DepositAndBridge simulates a fiat wire landing as USDC on the source
// wallet's network and bridges the funds to the destination wallet.
// Provider-side ids (bank account, recipient address) are reused from the
// user profile when present and persisted back exactly once when created.
func (s *Service) DepositAndBridge(
	ctx context.Context,
	user *entities.UserProfile,
	amount decimal.Decimal,
	sourceWallet *entities.Wallet,
	destWallet *entities.Wallet,
) (*entities.BridgeReceipt, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", domainerrors.ErrInvalidAmount, amount)
	}

	metrics.DepositsStarted.Inc()
	s.logger.Info("Starting deposit flow",
		zap.String("user_id", user.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("source_chain", string(sourceWallet.Chain)))

	// Step 1: resolve or create the mock bank account
	s.notify(ctx, user, "Setting up your bank account...")
	bankAccountID, err := s.ensureBankAccount(ctx, user)
	if err != nil {
		return nil, s.fail(err, "resolve bank account")
	}

	// Step 2: wire instructions, surfaced as illustrative deposit details
	instructions, err := s.provider.GetWireInstructions(ctx, bankAccountID)
	if err != nil {
		return nil, s.fail(err, "get wire instructions")
	}
	bank := instructions.Data.BeneficiaryBank
	s.notify(ctx, user, fmt.Sprintf(
		"For a real deposit you would wire to %s, account %s, routing %s. Simulating the wire now...",
		bank.Name, bank.AccountNumber, bank.RoutingNumber))

	// Step 3: simulate the inbound wire
	err = s.provider.SubmitMockWire(ctx, onramp.MockWireRequest{
		TrackingRef:   instructions.Data.TrackingRef,
		AccountNumber: bank.AccountNumber,
		Amount:        onramp.MoneyField{Amount: amount.StringFixed(2), Currency: "USD"},
	})
	if err != nil {
		return nil, s.fail(err, "submit mock wire")
	}
	s.notify(ctx, user, fmt.Sprintf("Wire of $%s received.", amount.StringFixed(2)))

	// Step 4: resolve or create the approved payout address
	recipientID, err := s.ensureRecipientAddress(ctx, user, sourceWallet)
	if err != nil {
		return nil, s.fail(err, "resolve recipient address")
	}

	// Step 5: pay the custodied balance out to the source wallet. The
	// provider rejects payouts for wallets not yet enabled, so this failure
	// carries the faucet fallback rather than a bare error.
	_, err = s.provider.CreateProviderTransfer(ctx, onramp.ProviderTransferRequest{
		RecipientID: recipientID,
		Amount:      onramp.MoneyField{Amount: amount.StringFixed(2), Currency: "USD"},
	})
	if err != nil {
		metrics.DepositsFailed.Inc()
		s.logger.Warn("Provider transfer rejected, surfacing faucet fallback",
			zap.String("user_id", user.ID.String()),
			zap.String("wallet_address", sourceWallet.Address),
			zap.Error(err))
		return nil, &domainerrors.ProviderDegradedError{
			WalletAddress: sourceWallet.Address,
			Cause:         err,
		}
	}
	s.notify(ctx, user, fmt.Sprintf("USDC is on its way to your %s wallet.", sourceWallet.Chain))

	// Step 6: let the payout settle, then bridge to the primary network
	if err := s.sleep(ctx); err != nil {
		return nil, s.fail(err, "settle delay")
	}

	receipt, err := s.transferSvc.Transfer(ctx, user.ConversationID, entities.TransferRequest{
		SourceWalletID:      sourceWallet.WalletID,
		SourceChain:         sourceWallet.Chain,
		DestinationChain:    destWallet.Chain,
		DestinationAddress:  destWallet.Address,
		DestinationWalletID: destWallet.WalletID,
		Amount:              amount,
	})
	if err != nil {
		metrics.DepositsFailed.Inc()
		return receipt, err
	}

	s.logger.Info("Deposit flow completed",
		zap.String("user_id", user.ID.String()),
		zap.String("receive_tx_id", receipt.ReceiveTxID))
	return receipt, nil
}

// ensureBankAccount reuses the stored bank account id or creates one and
// persists the new id to the user profile.
func (s *Service) ensureBankAccount(ctx context.Context, user *entities.UserProfile) (string, error) {
	if user.BankAccountID != "" {
		return user.BankAccountID, nil
	}

	id, err, _ := s.group.Do("bank:"+user.ID.String(), func() (interface{}, error) {
		name := user.DisplayName
		if name == "" {
			name = "Courier User"
		}
		bankAccountID, err := s.provider.CreateBankAccount(ctx, onramp.CreateBankAccountRequest{
			AccountNumber: mockAccountNumber,
			RoutingNumber: mockRoutingNumber,
			BillingDetails: onramp.BillingDetails{
				Name:       name,
				City:       "Boston",
				Country:    "US",
				Line1:      "1 Main Street",
				PostalCode: "02201",
			},
		})
		if err != nil {
			return "", err
		}
		if err := s.store.SetBankAccountID(ctx, user.ID, bankAccountID); err != nil {
			return "", domainerrors.Wrap(err, "persist bank account id")
		}
		return bankAccountID, nil
	})
	if err != nil {
		return "", err
	}

	user.BankAccountID = id.(string)
	return user.BankAccountID, nil
}

// ensureRecipientAddress reuses the stored recipient id or registers the
// source wallet's address and persists the new id.
func (s *Service) ensureRecipientAddress(ctx context.Context, user *entities.UserProfile, wallet *entities.Wallet) (string, error) {
	if user.RecipientAddressID != "" {
		return user.RecipientAddressID, nil
	}

	id, err, _ := s.group.Do("recipient:"+user.ID.String(), func() (interface{}, error) {
		recipientID, err := s.provider.CreateRecipientAddress(ctx, onramp.CreateRecipientRequest{
			Address:     wallet.Address,
			Chain:       string(wallet.Chain),
			Description: "Deposit wallet",
		})
		if err != nil {
			return "", err
		}
		if err := s.store.SetRecipientAddressID(ctx, user.ID, recipientID); err != nil {
			return "", domainerrors.Wrap(err, "persist recipient address id")
		}
		return recipientID, nil
	})
	if err != nil {
		return "", err
	}

	user.RecipientAddressID = id.(string)
	return user.RecipientAddressID, nil
}

func (s *Service) fail(err error, context string) error {
	metrics.DepositsFailed.Inc()
	return domainerrors.Wrap(err, context)
}

func (s *Service) notify(ctx context.Context, user *entities.UserProfile, text string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, user.ConversationID, text)
}

func (s *Service) sleep(ctx context.Context) error {
	if s.settleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.settleDelay):
		return nil
	}
}
