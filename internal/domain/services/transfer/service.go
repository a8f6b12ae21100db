// Package transfer drives the four-step burn/attest/mint bridge protocol
// that moves USDC from a custodial wallet on one network to a wallet on
// another.
package transfer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
	"github.com/courier-service/courier_service/internal/domain/services/notify"
	"github.com/courier-service/courier_service/internal/infrastructure/circle"
	"github.com/courier-service/courier_service/internal/infrastructure/config"
	"github.com/courier-service/courier_service/pkg/metrics"
	"github.com/courier-service/courier_service/pkg/poll"
)

const (
	defaultConfirmInterval = 2 * time.Second
	defaultConfirmAttempts = 150
	defaultSettleDelay     = 5 * time.Second
)

// WalletGateway is the slice of the custodial wallet provider the
// orchestrator needs.
type WalletGateway interface {
	CreateContractExecution(ctx context.Context, req circle.ContractExecutionRequest) (string, error)
	GetTransaction(ctx context.Context, transactionID string) (*entities.TransactionStatus, error)
}

// AttestationWaiter blocks until a burn's attestation is available.
type AttestationWaiter interface {
	WaitForAttestation(ctx context.Context, sourceDomain uint32, txHash string) (*entities.Attestation, error)
}

// Config tunes confirmation polling and the post-burn settle delay.
type Config struct {
	ConfirmPollInterval time.Duration
	ConfirmMaxAttempts  int
	SettleDelay         time.Duration
}

// Service is the cross-chain transfer orchestrator.
type Service struct {
	gateway  WalletGateway
	attester AttestationWaiter
	registry *config.Registry
	notifier notify.Notifier
	config   Config
	logger   *zap.Logger
}

// NewService creates the orchestrator. Dependencies are explicit so tests
// can substitute doubles for the gateway and attester.
func NewService(
	gateway WalletGateway,
	attester AttestationWaiter,
	registry *config.Registry,
	notifier notify.Notifier,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.ConfirmPollInterval <= 0 {
		cfg.ConfirmPollInterval = defaultConfirmInterval
	}
	if cfg.ConfirmMaxAttempts <= 0 {
		cfg.ConfirmMaxAttempts = defaultConfirmAttempts
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	return &Service{
		gateway:  gateway,
		attester: attester,
		registry: registry,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
	}
}

// Transfer moves req.Amount USDC from the source wallet to the destination
// address via approve → burn → attest → receive. Steps run strictly in
// order; each on-chain step is polled to a terminal state before the next
// begins. Any failure aborts with no rollback; the returned receipt carries
// the ids of the steps that did confirm.
func (s *Service) Transfer(ctx context.Context, conversationID string, req entities.TransferRequest) (*entities.BridgeReceipt, error) {
	start := time.Now()

	srcCfg, err := s.registry.Get(req.SourceChain)
	if err != nil {
		return nil, err
	}
	dstCfg, err := s.registry.Get(req.DestinationChain)
	if err != nil {
		return nil, err
	}

	baseUnits, err := ToBaseUnits(req.Amount)
	if err != nil {
		return nil, err
	}
	mintRecipient, err := PadRecipient(req.DestinationAddress)
	if err != nil {
		return nil, err
	}

	metrics.TransfersStarted.WithLabelValues(string(req.SourceChain), string(req.DestinationChain)).Inc()
	s.logger.Info("Starting cross-chain transfer",
		zap.String("source_chain", string(req.SourceChain)),
		zap.String("destination_chain", string(req.DestinationChain)),
		zap.String("amount", req.Amount.String()),
		zap.Uint64("base_units", baseUnits))

	receipt := &entities.BridgeReceipt{}
	amountStr := strconv.FormatUint(baseUnits, 10)

	// Step 1: approve the token messenger to spend the amount
	s.notify(ctx, conversationID, fmt.Sprintf("Step 1/4: approving %s USDC for bridging on %s...",
		req.Amount, req.SourceChain))

	approveID, err := s.gateway.CreateContractExecution(ctx, circle.ContractExecutionRequest{
		WalletID:             req.SourceWalletID,
		ContractAddress:      srcCfg.USDCContract,
		ABIFunctionSignature: "approve(address,uint256)",
		ABIParameters:        []any{srcCfg.TokenMessenger, amountStr},
	})
	if err != nil {
		return receipt, s.fail(entities.StepApprove, err)
	}
	receipt.ApproveTxID = approveID

	if _, err := s.confirm(ctx, entities.StepApprove, approveID); err != nil {
		return receipt, s.fail(entities.StepApprove, err)
	}
	s.notify(ctx, conversationID, "Approval confirmed.")

	// Step 2: burn on the source chain
	s.notify(ctx, conversationID, fmt.Sprintf("Step 2/4: burning USDC on %s...", req.SourceChain))

	maxFee := strconv.FormatUint(MaxFee(baseUnits), 10)
	burnID, err := s.gateway.CreateContractExecution(ctx, circle.ContractExecutionRequest{
		WalletID:             req.SourceWalletID,
		ContractAddress:      srcCfg.TokenMessenger,
		ABIFunctionSignature: "depositForBurn(uint256,uint32,bytes32,address,bytes32,uint256,uint32)",
		ABIParameters: []any{
			amountStr,
			dstCfg.DomainID,
			mintRecipient,
			srcCfg.USDCContract,
			ZeroBytes32,
			maxFee,
			MinFinalityThreshold,
		},
	})
	if err != nil {
		return receipt, s.fail(entities.StepBurn, err)
	}
	receipt.BurnTxID = burnID

	burnStatus, err := s.confirm(ctx, entities.StepBurn, burnID)
	if err != nil {
		return receipt, s.fail(entities.StepBurn, err)
	}
	receipt.BurnTxHash = burnStatus.TxHash
	s.notify(ctx, conversationID, "Burn confirmed. Waiting for the bridge attestation...")

	// Step 3: wait for the off-chain attestation. The short settle delay
	// gives the attestation service time to index the burn.
	if err := s.sleep(ctx, s.config.SettleDelay); err != nil {
		return receipt, s.fail(entities.StepAttest, err)
	}
	attestation, err := s.attester.WaitForAttestation(ctx, srcCfg.DomainID, burnStatus.TxHash)
	if err != nil {
		return receipt, s.fail(entities.StepAttest, err)
	}
	s.notify(ctx, conversationID, "Attestation received.")

	// Step 4: mint on the destination chain
	s.notify(ctx, conversationID, fmt.Sprintf("Step 4/4: minting USDC on %s...", req.DestinationChain))

	receiveID, err := s.gateway.CreateContractExecution(ctx, circle.ContractExecutionRequest{
		WalletID:             req.DestinationWalletID,
		ContractAddress:      dstCfg.MessageTransmitter,
		ABIFunctionSignature: "receiveMessage(bytes,bytes)",
		ABIParameters:        []any{attestation.Message, attestation.Attestation},
	})
	if err != nil {
		return receipt, s.fail(entities.StepReceive, err)
	}
	receipt.ReceiveTxID = receiveID

	if _, err := s.confirm(ctx, entities.StepReceive, receiveID); err != nil {
		return receipt, s.fail(entities.StepReceive, err)
	}
	s.notify(ctx, conversationID, fmt.Sprintf("Transfer complete: %s USDC arrived on %s.",
		req.Amount, req.DestinationChain))

	metrics.TransfersCompleted.WithLabelValues(string(req.SourceChain), string(req.DestinationChain)).Inc()
	metrics.ObserveTransfer(start)
	s.logger.Info("Cross-chain transfer completed",
		zap.String("approve_tx_id", receipt.ApproveTxID),
		zap.String("burn_tx_id", receipt.BurnTxID),
		zap.String("receive_tx_id", receipt.ReceiveTxID),
		zap.Duration("elapsed", time.Since(start)))

	return receipt, nil
}

// confirm polls a submitted transaction every ConfirmPollInterval until it
// reaches a terminal state. A failed terminal state aborts the transfer.
func (s *Service) confirm(ctx context.Context, step entities.BridgeStep, transactionID string) (*entities.TransactionStatus, error) {
	poller, err := poll.New(poll.Policy{
		Interval:    s.config.ConfirmPollInterval,
		MaxAttempts: s.config.ConfirmMaxAttempts,
	}, s.logger)
	if err != nil {
		return nil, err
	}

	var final *entities.TransactionStatus
	err = poller.Until(ctx, string(step)+" confirmation", func(ctx context.Context, attempt int) (poll.Outcome, error) {
		status, err := s.gateway.GetTransaction(ctx, transactionID)
		if err != nil {
			// Transient lookup errors count as pending; the attempt ceiling
			// still bounds the wait.
			return poll.Pending, err
		}
		switch status.State {
		case entities.TxStateConfirmed:
			final = status
			return poll.Done, nil
		case entities.TxStateFailed:
			return poll.Failed, &domainerrors.TransactionFailedError{
				Step:          string(step),
				TransactionID: transactionID,
				TxHash:        status.TxHash,
			}
		default:
			return poll.Pending, nil
		}
	})
	if err != nil {
		if poll.IsMaxAttempts(err) {
			return nil, fmt.Errorf("%s: %w", step, domainerrors.ErrConfirmationTimeout)
		}
		return nil, err
	}
	return final, nil
}

func (s *Service) fail(step entities.BridgeStep, err error) error {
	metrics.TransfersFailed.WithLabelValues(string(step)).Inc()
	s.logger.Error("Transfer aborted",
		zap.String("step", string(step)),
		zap.Error(err))
	return domainerrors.Wrap(err, string(step))
}

func (s *Service) notify(ctx context.Context, conversationID, text string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, conversationID, text)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
