// Package circle implements the wallet gateway against Circle's
// developer-controlled wallets API.
package circle

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/courier-service/courier_service/internal/domain/entities"
)

const (
	// Circle API URLs
	ProductionBaseURL = "https://api.circle.com"
	SandboxBaseURL    = "https://api-sandbox.circle.com"

	// Timeouts and limits
	defaultTimeout = 30 * time.Second
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 32 * time.Second
	jitterRange    = 0.1 // 10% jitter

	// DefaultFeeLevel is used when the caller does not pick one.
	DefaultFeeLevel = "MEDIUM"
)

// Config represents Circle API configuration
type Config struct {
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Environment string        `json:"environment"` // "sandbox" or "mainnet"
	Timeout     time.Duration `json:"timeout"`
	WalletSetID string        `json:"wallet_set_id"`

	WalletsEndpoint           string `json:"wallets_endpoint"`
	BalancesEndpoint          string `json:"balances_endpoint"`
	TransferEndpoint          string `json:"transfer_endpoint"`
	ContractExecutionEndpoint string `json:"contract_execution_endpoint"`
	TransactionsEndpoint      string `json:"transactions_endpoint"`
}

// Client represents a Circle API client
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient creates a new Circle API client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.BaseURL == "" {
		if config.Environment == "sandbox" {
			config.BaseURL = SandboxBaseURL
		} else {
			config.BaseURL = ProductionBaseURL
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.WalletsEndpoint == "" {
		config.WalletsEndpoint = "/v1/w3s/developer/wallets"
	}
	if config.BalancesEndpoint == "" {
		config.BalancesEndpoint = "/v1/w3s/wallets"
	}
	if config.TransferEndpoint == "" {
		config.TransferEndpoint = "/v1/w3s/developer/transactions/transfer"
	}
	if config.ContractExecutionEndpoint == "" {
		config.ContractExecutionEndpoint = "/v1/w3s/developer/transactions/contractExecution"
	}
	if config.TransactionsEndpoint == "" {
		config.TransactionsEndpoint = "/v1/w3s/transactions"
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	st := gobreaker.Settings{
		Name:        "CircleAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		config:         config,
		httpClient:     httpClient,
		circuitBreaker: gobreaker.NewCircuitBreaker(st),
		logger:         logger,
	}
}

// CreateWallet creates a developer-controlled wallet on one blockchain.
func (c *Client) CreateWallet(ctx context.Context, chain entities.WalletChain) (*entities.Wallet, error) {
	req := WalletCreateRequest{
		IdempotencyKey: uuid.NewString(),
		WalletSetID:    c.config.WalletSetID,
		Blockchains:    []string{string(chain)},
		AccountType:    "EOA",
		Count:          1,
	}

	c.logger.Info("Creating wallet", zap.String("chain", string(chain)))

	var response WalletCreateResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequestWithRetry(ctx, http.MethodPost, c.config.WalletsEndpoint, req, &response)
	})
	if err != nil {
		c.logger.Error("Failed to create wallet",
			zap.String("chain", string(chain)),
			zap.Error(err))
		return nil, fmt.Errorf("create wallet failed: %w", err)
	}
	if len(response.Data.Wallets) == 0 {
		return nil, fmt.Errorf("create wallet: empty response")
	}

	w := response.Data.Wallets[0]
	c.logger.Info("Created wallet",
		zap.String("wallet_id", w.ID),
		zap.String("address", w.Address),
		zap.String("chain", w.Blockchain))

	return &entities.Wallet{
		WalletID: w.ID,
		Address:  w.Address,
		Chain:    entities.WalletChain(w.Blockchain),
	}, nil
}

// GetWalletBalances retrieves token balances for a wallet.
func (c *Client) GetWalletBalances(ctx context.Context, walletID string) (*BalancesResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/balances", c.config.BalancesEndpoint, walletID)

	var response BalancesResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response)
	})
	if err != nil {
		c.logger.Error("Failed to get wallet balances",
			zap.String("wallet_id", walletID),
			zap.Error(err))
		return nil, fmt.Errorf("get wallet balances failed: %w", err)
	}
	return &response, nil
}

// CreateTransfer submits a direct token transfer from a wallet.
func (c *Client) CreateTransfer(ctx context.Context, req TransferRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	if req.FeeLevel == "" {
		req.FeeLevel = DefaultFeeLevel
	}

	c.logger.Info("Submitting transfer",
		zap.String("wallet_id", req.WalletID),
		zap.Strings("amounts", req.Amounts),
		zap.String("destination", req.DestinationAddress))

	var response TransactionResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequestWithRetry(ctx, http.MethodPost, c.config.TransferEndpoint, req, &response)
	})
	if err != nil {
		return "", fmt.Errorf("transfer failed: %w", err)
	}
	return response.Data.ID, nil
}

// CreateContractExecution submits an arbitrary contract call from a wallet
// and returns the provider transaction id.
func (c *Client) CreateContractExecution(ctx context.Context, req ContractExecutionRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	if req.FeeLevel == "" {
		req.FeeLevel = DefaultFeeLevel
	}

	c.logger.Info("Submitting contract execution",
		zap.String("wallet_id", req.WalletID),
		zap.String("contract", req.ContractAddress),
		zap.String("function", req.ABIFunctionSignature))

	var response TransactionResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequestWithRetry(ctx, http.MethodPost, c.config.ContractExecutionEndpoint, req, &response)
	})
	if err != nil {
		c.logger.Error("Failed to submit contract execution",
			zap.String("wallet_id", req.WalletID),
			zap.String("function", req.ABIFunctionSignature),
			zap.Error(err))
		return "", fmt.Errorf("contract execution failed: %w", err)
	}
	return response.Data.ID, nil
}

// GetTransaction retrieves the status of a submitted transaction.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*entities.TransactionStatus, error) {
	endpoint := fmt.Sprintf("%s/%s", c.config.TransactionsEndpoint, transactionID)

	var response TransactionStatusResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response)
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction failed: %w", err)
	}

	status := response.Status()
	if status.TransactionID == "" {
		status.TransactionID = transactionID
	}
	return &status, nil
}

// addJitter spreads retries to avoid a thundering herd.
func addJitter(duration time.Duration) time.Duration {
	randomBytes := make([]byte, 1)
	rand.Read(randomBytes)
	randomFloat := float64(randomBytes[0])/255.0*2 - 1 // -1..1

	jitter := time.Duration(float64(duration) * jitterRange * randomFloat)
	return duration + jitter
}

// calculateBackoff calculates exponential backoff with jitter
func calculateBackoff(attempt int, retryAfter time.Duration) time.Duration {
	baseDelay := retryAfter
	if baseDelay <= 0 {
		exponent := math.Pow(2, float64(attempt))
		baseDelay = time.Duration(exponent) * baseBackoff
	}
	if baseDelay > maxBackoff {
		baseDelay = maxBackoff
	}
	return addJitter(baseDelay)
}

// doRequestWithRetry performs an HTTP request with bounded exponential
// backoff retry and jitter.
func (c *Client) doRequestWithRetry(ctx context.Context, method, endpoint string, requestBody, responseBody interface{}) error {
	var lastErr error
	requestID := uuid.NewString()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			var retryAfter time.Duration
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) {
				retryAfter = apiErr.RetryAfter
			}

			backoff := calculateBackoff(attempt-1, retryAfter)
			c.logger.Debug("Retrying Circle API request",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.String("method", method),
				zap.String("endpoint", endpoint))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doRequest(ctx, method, endpoint, requestBody, responseBody, requestID)
		if err == nil {
			return nil
		}
		lastErr = err

		if !c.shouldRetry(err) {
			return err
		}

		c.logger.Warn("Circle API request failed, will retry",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt+1),
			zap.String("endpoint", endpoint),
			zap.Error(err))
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, requestBody, responseBody interface{}, requestID string) error {
	url := c.config.BaseURL + endpoint

	var reqBody io.Reader
	if requestBody != nil {
		jsonData, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.handleErrorResponse(resp.StatusCode, body, requestID)
	}

	if responseBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, responseBody); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) handleErrorResponse(statusCode int, body []byte, requestID string) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
		Message:    string(body),
	}

	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		apiErr.Message = errResp.Message
	}
	if statusCode == 429 {
		apiErr.RetryAfter = 5 * time.Second
	}
	return apiErr
}

func (c *Client) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	// Network errors
	return true
}
