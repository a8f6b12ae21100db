package transfer

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
	"github.com/courier-service/courier_service/internal/infrastructure/circle"
	"github.com/courier-service/courier_service/internal/infrastructure/config"
)

const (
	srcUSDC      = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	srcMessenger = "0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA"
	dstTransmit  = "0xE737e5cEBEEBa77EFE34D4aa090756590b1CE75f"
	destAddress  = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
)

type fakeGateway struct {
	executions []circle.ContractExecutionRequest
	// statusFor decides the terminal state per transaction id; nil means
	// every transaction confirms
	statusFor map[string]entities.TxState
	// pendingPolls makes every transaction report pending this many times
	// before its terminal state
	pendingPolls int

	polls map[string]int
}

func (g *fakeGateway) CreateContractExecution(_ context.Context, req circle.ContractExecutionRequest) (string, error) {
	g.executions = append(g.executions, req)
	return fmt.Sprintf("tx-%d", len(g.executions)), nil
}

func (g *fakeGateway) GetTransaction(_ context.Context, transactionID string) (*entities.TransactionStatus, error) {
	if g.polls == nil {
		g.polls = make(map[string]int)
	}
	g.polls[transactionID]++
	if g.polls[transactionID] <= g.pendingPolls {
		return &entities.TransactionStatus{TransactionID: transactionID, State: entities.TxStatePending}, nil
	}

	state := entities.TxStateConfirmed
	if g.statusFor != nil {
		if s, ok := g.statusFor[transactionID]; ok {
			state = s
		}
	}
	return &entities.TransactionStatus{
		TransactionID: transactionID,
		State:         state,
		TxHash:        "0xhash-" + transactionID,
	}, nil
}

type fakeAttester struct {
	calls        int
	sourceDomain uint32
	txHash       string
	err          error
}

func (a *fakeAttester) WaitForAttestation(_ context.Context, sourceDomain uint32, txHash string) (*entities.Attestation, error) {
	a.calls++
	a.sourceDomain = sourceDomain
	a.txHash = txHash
	if a.err != nil {
		return nil, a.err
	}
	return &entities.Attestation{Message: "0xmessage", Attestation: "0xattestation"}, nil
}

func testRegistry(t *testing.T) *config.Registry {
	t.Helper()
	registry, err := config.NewRegistry(map[string]config.ChainConfig{
		"ETH-SEPOLIA": {
			USDCContract:       srcUSDC,
			TokenMessenger:     srcMessenger,
			MessageTransmitter: dstTransmit,
			DomainID:           0,
		},
		"BASE-SEPOLIA": {
			USDCContract:       "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
			TokenMessenger:     srcMessenger,
			MessageTransmitter: dstTransmit,
			DomainID:           6,
		},
	})
	require.NoError(t, err)
	return registry
}

func newTestService(t *testing.T, gateway *fakeGateway, attester *fakeAttester) *Service {
	t.Helper()
	return NewService(gateway, attester, testRegistry(t), nil, Config{
		ConfirmPollInterval: 1,
		ConfirmMaxAttempts:  5,
		SettleDelay:         0,
	}, zap.NewNop())
}

func testRequest(amount string) entities.TransferRequest {
	return entities.TransferRequest{
		SourceWalletID:      "wallet-src",
		SourceChain:         entities.ChainEthSepolia,
		DestinationChain:    entities.ChainBaseSepolia,
		DestinationAddress:  destAddress,
		DestinationWalletID: "wallet-dst",
		Amount:              decimal.RequireFromString(amount),
	}
}

func TestTransferHappyPath(t *testing.T) {
	gateway := &fakeGateway{}
	attester := &fakeAttester{}
	svc := newTestService(t, gateway, attester)

	receipt, err := svc.Transfer(context.Background(), "conv-1", testRequest("25.00"))
	require.NoError(t, err)

	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.ApproveTxID)
	assert.NotEmpty(t, receipt.BurnTxID)
	assert.NotEmpty(t, receipt.ReceiveTxID)

	// Strictly ordered: approve, burn, receive
	require.Len(t, gateway.executions, 3)

	approve := gateway.executions[0]
	assert.Equal(t, "wallet-src", approve.WalletID)
	assert.Equal(t, srcUSDC, approve.ContractAddress)
	assert.Equal(t, "approve(address,uint256)", approve.ABIFunctionSignature)
	assert.Equal(t, []any{srcMessenger, "25000000"}, approve.ABIParameters)

	burn := gateway.executions[1]
	assert.Equal(t, "wallet-src", burn.WalletID)
	assert.Equal(t, srcMessenger, burn.ContractAddress)
	assert.Equal(t, "depositForBurn(uint256,uint32,bytes32,address,bytes32,uint256,uint32)", burn.ABIFunctionSignature)
	padded, err := PadRecipient(destAddress)
	require.NoError(t, err)
	assert.Equal(t, []any{
		"25000000",
		uint32(6),
		padded,
		srcUSDC,
		ZeroBytes32,
		"5000", // 25000000 / 5000
		MinFinalityThreshold,
	}, burn.ABIParameters)

	receive := gateway.executions[2]
	assert.Equal(t, "wallet-dst", receive.WalletID)
	assert.Equal(t, dstTransmit, receive.ContractAddress)
	assert.Equal(t, "receiveMessage(bytes,bytes)", receive.ABIFunctionSignature)
	assert.Equal(t, []any{"0xmessage", "0xattestation"}, receive.ABIParameters)

	// Attestation is keyed by the source domain and the burn's on-chain hash
	assert.Equal(t, 1, attester.calls)
	assert.Equal(t, uint32(0), attester.sourceDomain)
	assert.Equal(t, "0xhash-"+receipt.BurnTxID, attester.txHash)
	assert.Equal(t, "0xhash-"+receipt.BurnTxID, receipt.BurnTxHash)
}

func TestTransferConfirmsBeforeNextStep(t *testing.T) {
	gateway := &fakeGateway{pendingPolls: 3}
	attester := &fakeAttester{}
	svc := newTestService(t, gateway, attester)

	receipt, err := svc.Transfer(context.Background(), "conv-1", testRequest("10"))
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ReceiveTxID)

	// Each of the three transactions was polled past its pending phase
	for _, id := range []string{receipt.ApproveTxID, receipt.BurnTxID, receipt.ReceiveTxID} {
		assert.Equal(t, 4, gateway.polls[id], "transaction %s", id)
	}
}

func TestTransferBurnFailureAborts(t *testing.T) {
	gateway := &fakeGateway{statusFor: map[string]entities.TxState{
		"tx-2": entities.TxStateFailed, // the burn
	}}
	attester := &fakeAttester{}
	svc := newTestService(t, gateway, attester)

	receipt, err := svc.Transfer(context.Background(), "conv-1", testRequest("25.00"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsTransactionFailed(err))

	// Nothing past the burn ran: no attestation wait, no mint submission
	assert.Len(t, gateway.executions, 2)
	assert.Equal(t, 0, attester.calls)

	// The partial receipt still names the steps that did run
	require.NotNil(t, receipt)
	assert.Equal(t, "tx-1", receipt.ApproveTxID)
	assert.Equal(t, "tx-2", receipt.BurnTxID)
	assert.Empty(t, receipt.ReceiveTxID)
}

func TestTransferFailedPollAbortsWithoutRetry(t *testing.T) {
	gateway := &fakeGateway{statusFor: map[string]entities.TxState{
		"tx-1": entities.TxStateFailed,
	}}
	svc := newTestService(t, gateway, &fakeAttester{})

	_, err := svc.Transfer(context.Background(), "conv-1", testRequest("25.00"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsTransactionFailed(err))

	// A failed terminal state aborts on the first poll that observes it
	assert.Equal(t, 1, gateway.polls["tx-1"])
	assert.Len(t, gateway.executions, 1)
}

func TestTransferConfirmationTimeout(t *testing.T) {
	gateway := &fakeGateway{pendingPolls: 1000}
	svc := newTestService(t, gateway, &fakeAttester{})

	receipt, err := svc.Transfer(context.Background(), "conv-1", testRequest("25.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrConfirmationTimeout)
	assert.Equal(t, 5, gateway.polls["tx-1"])
	assert.Equal(t, "tx-1", receipt.ApproveTxID)
}

func TestTransferAttestationTimeoutAborts(t *testing.T) {
	gateway := &fakeGateway{}
	attester := &fakeAttester{err: domainerrors.ErrAttestationTimeout}
	svc := newTestService(t, gateway, attester)

	receipt, err := svc.Transfer(context.Background(), "conv-1", testRequest("25.00"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsAttestationTimeout(err))

	// The burn confirmed; only the mint is missing
	assert.Len(t, gateway.executions, 2)
	assert.NotEmpty(t, receipt.BurnTxID)
	assert.Empty(t, receipt.ReceiveTxID)
}

func TestTransferUnknownChainRejected(t *testing.T) {
	svc := newTestService(t, &fakeGateway{}, &fakeAttester{})

	req := testRequest("25.00")
	req.SourceChain = "SOLANA-DEVNET"

	_, err := svc.Transfer(context.Background(), "conv-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrChainNotConfigured)
}

func TestTransferInvalidAmountRejected(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, &fakeAttester{})

	req := testRequest("25.00")
	req.Amount = decimal.Zero

	_, err := svc.Transfer(context.Background(), "conv-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidAmount)
	assert.Empty(t, gateway.executions)
}
