package attest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}, zap.NewNop())
}

func TestGetMessagesSuccess(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/messages/3", r.URL.Path)
		assert.Equal(t, "0xabc123", r.URL.Query().Get("transactionHash"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"messages": [{
				"attestation": "0xsigned",
				"status": "complete",
				"message": "0xpayload",
				"eventNonce": "42",
				"cctpVersion": 2
			}]
		}`))
	})

	resp, err := client.GetMessages(context.Background(), 3, "0xabc123")
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)

	msg := resp.Messages[0]
	assert.Equal(t, StatusComplete, msg.Status)
	assert.Equal(t, "0xsigned", msg.Attestation)
	assert.Equal(t, "0xpayload", msg.Message)
	assert.Equal(t, 2, msg.CCTPVersion)
}

func TestGetMessagesEmptyList(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages": []}`))
	})

	_, err := client.GetMessages(context.Background(), 0, "0xabc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestGetMessagesNotFound(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "not_found", "error": "Message not found"}`))
	})

	_, err := client.GetMessages(context.Background(), 0, "0xabc")
	require.Error(t, err)

	var apiErr *ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "Message not found", apiErr.Message)
}

func TestGetMessagesPendingStatus(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages": [{"status": "pending_confirmations", "attestation": "PENDING"}]}`))
	})

	resp, err := client.GetMessages(context.Background(), 0, "0xabc")
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, StatusPending, resp.Messages[0].Status)
}

func TestClientDefaultsToSandboxURL(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop())
	assert.Equal(t, SandboxURL, client.config.BaseURL)

	mainnet := NewClient(Config{Environment: "mainnet"}, zap.NewNop())
	assert.Equal(t, MainnetURL, mainnet.config.BaseURL)
}
