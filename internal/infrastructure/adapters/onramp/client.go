// Package onramp is the client for the fiat on-ramp provider's sandbox
// banking API: mock bank accounts, wire instructions, simulated inbound
// wires, approved payout addresses and custodial transfers.
package onramp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Config represents on-ramp provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is the on-ramp provider API client
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient creates a new on-ramp provider client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	st := gobreaker.Settings{
		Name:        "OnRampAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("On-ramp circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(st),
		logger:         logger,
	}
}

// CreateBankAccount registers a mock bank account and returns its id.
func (c *Client) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	c.logger.Info("Creating mock bank account",
		zap.String("holder", req.BillingDetails.Name))

	var resp BankAccountResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/banks/wires", req, &resp); err != nil {
		return "", fmt.Errorf("create bank account failed: %w", err)
	}
	return resp.Data.ID, nil
}

// GetWireInstructions fetches beneficiary details for a bank account.
func (c *Client) GetWireInstructions(ctx context.Context, bankAccountID string) (*WireInstructionsResponse, error) {
	endpoint := fmt.Sprintf("/v1/banks/wires/%s/instructions", bankAccountID)

	var resp WireInstructionsResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("get wire instructions failed: %w", err)
	}
	return &resp, nil
}

// SubmitMockWire simulates an inbound wire for the given amount.
func (c *Client) SubmitMockWire(ctx context.Context, req MockWireRequest) error {
	c.logger.Info("Submitting mock wire",
		zap.String("amount", req.Amount.Amount),
		zap.String("account", req.AccountNumber))

	if err := c.doRequest(ctx, http.MethodPost, "/v1/mocks/payments/wire", req, nil); err != nil {
		return fmt.Errorf("submit mock wire failed: %w", err)
	}
	return nil
}

// CreateRecipientAddress registers an approved on-chain payout address and
// returns its id. Payouts are only permitted to pre-approved addresses.
func (c *Client) CreateRecipientAddress(ctx context.Context, req CreateRecipientRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	c.logger.Info("Creating recipient address",
		zap.String("chain", req.Chain),
		zap.String("address", req.Address))

	var resp RecipientResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/addressBook/recipients", req, &resp); err != nil {
		return "", fmt.Errorf("create recipient address failed: %w", err)
	}
	return resp.Data.ID, nil
}

// CreateProviderTransfer pays custodied balance out to an approved recipient
// and returns the provider transfer id.
func (c *Client) CreateProviderTransfer(ctx context.Context, req ProviderTransferRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	c.logger.Info("Creating provider transfer",
		zap.String("recipient_id", req.RecipientID),
		zap.String("amount", req.Amount.Amount))

	var resp ProviderTransferResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/transfers", req, &resp); err != nil {
		return "", fmt.Errorf("create provider transfer failed: %w", err)
	}
	return resp.Data.ID, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, requestBody, responseBody interface{}) error {
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRequestInternal(ctx, method, endpoint, requestBody, responseBody)
	})
	return err
}

func (c *Client) doRequestInternal(ctx context.Context, method, endpoint string, requestBody, responseBody interface{}) error {
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
		var errResp struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("provider error [%d]: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("provider error [%d]: %s", resp.StatusCode, string(body))
	}

	if responseBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, responseBody); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
