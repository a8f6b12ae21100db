package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/courier-service/courier_service/internal/domain/entities"
	"github.com/courier-service/courier_service/internal/domain/services/deposit"
	"github.com/courier-service/courier_service/internal/domain/services/notify"
	"github.com/courier-service/courier_service/internal/domain/services/transfer"
	"github.com/courier-service/courier_service/internal/infrastructure/adapters/attest"
	"github.com/courier-service/courier_service/internal/infrastructure/adapters/onramp"
	"github.com/courier-service/courier_service/internal/infrastructure/circle"
	"github.com/courier-service/courier_service/internal/infrastructure/config"
	"github.com/courier-service/courier_service/internal/infrastructure/storage"
	"github.com/courier-service/courier_service/pkg/logger"
)

func main() {
	var (
		mode          = flag.String("mode", "transfer", "operation to run: transfer or deposit")
		amountStr     = flag.String("amount", "", "USD amount, e.g. 25.00")
		sourceWallet  = flag.String("source-wallet", "", "source wallet id")
		sourceAddress = flag.String("source-address", "", "source wallet address (deposit mode)")
		sourceChain   = flag.String("source-chain", string(entities.ChainEthSepolia), "source network")
		destWallet    = flag.String("dest-wallet", "", "destination wallet id")
		destAddress   = flag.String("dest-address", "", "destination wallet address")
		destChain     = flag.String("dest-chain", string(entities.ChainBaseSepolia), "destination network")
		metricsAddr   = flag.String("metrics-addr", "", "address to serve /metrics on (empty disables)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	registry, err := config.NewRegistry(cfg.Bridge.Chains)
	if err != nil {
		log.Fatal("Invalid bridge configuration", zap.Error(err))
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		log.Fatal("Invalid amount", zap.String("amount", *amountStr), zap.Error(err))
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	circleClient := circle.NewClient(circle.Config{
		APIKey:      cfg.Circle.APIKey,
		BaseURL:     cfg.Circle.BaseURL,
		Environment: cfg.Circle.Environment,
		Timeout:     cfg.Circle.Timeout,
		WalletSetID: cfg.Circle.WalletSetID,
	}, log)

	attestClient := attest.NewClient(attest.Config{
		BaseURL:     cfg.Attestation.BaseURL,
		Environment: cfg.Attestation.Environment,
	}, log)
	waiter := attest.NewWaiter(attestClient, log,
		attest.WithPollInterval(cfg.Attestation.PollInterval),
		attest.WithMaxAttempts(cfg.Attestation.MaxAttempts))

	notifier := notify.NewLogNotifier(log)

	transferSvc := transfer.NewService(circleClient, waiter, registry, notifier, transfer.Config{
		ConfirmPollInterval: cfg.Bridge.ConfirmPollInterval,
		ConfirmMaxAttempts:  cfg.Bridge.ConfirmMaxAttempts,
		SettleDelay:         cfg.Attestation.SettleDelay,
	}, log)

	var receipt *entities.BridgeReceipt

	switch *mode {
	case "transfer":
		receipt, err = transferSvc.Transfer(ctx, "cli", entities.TransferRequest{
			SourceWalletID:      *sourceWallet,
			SourceChain:         entities.WalletChain(*sourceChain),
			DestinationChain:    entities.WalletChain(*destChain),
			DestinationAddress:  *destAddress,
			DestinationWalletID: *destWallet,
			Amount:              amount,
		})

	case "deposit":
		onrampClient := onramp.NewClient(onramp.Config{
			APIKey:  cfg.OnRamp.APIKey,
			BaseURL: cfg.OnRamp.BaseURL,
		}, log)
		store := storage.NewMemoryProfileStore()
		depositSvc := deposit.NewService(onrampClient, store, transferSvc, notifier, cfg.OnRamp.SettleDelay, log)

		user := &entities.UserProfile{
			ID:             uuid.New(),
			ConversationID: "cli",
			DisplayName:    "CLI User",
			PrimaryChain:   entities.WalletChain(*destChain),
		}
		receipt, err = depositSvc.DepositAndBridge(ctx, user, amount,
			&entities.Wallet{WalletID: *sourceWallet, Address: *sourceAddress, Chain: entities.WalletChain(*sourceChain)},
			&entities.Wallet{WalletID: *destWallet, Address: *destAddress, Chain: entities.WalletChain(*destChain)})

	default:
		log.Fatal("Unknown mode", zap.String("mode", *mode))
	}

	if err != nil {
		log.Error("Operation failed", zap.Error(err))
		if receipt != nil {
			printReceipt(receipt)
		}
		os.Exit(1)
	}
	printReceipt(receipt)
}

func printReceipt(receipt *entities.BridgeReceipt) {
	out, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}
