package attest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
)

// scriptedClient returns one scripted result per GetMessages call, repeating
// the last entry once the script runs out.
type scriptedClient struct {
	script []func() (*MessagesResponse, error)
	calls  int
}

func (c *scriptedClient) GetMessages(_ context.Context, _ uint32, _ string) (*MessagesResponse, error) {
	idx := c.calls
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	c.calls++
	return c.script[idx]()
}

func completeResponse() (*MessagesResponse, error) {
	return &MessagesResponse{Messages: []Message{{
		Status:      StatusComplete,
		Message:     "0xmessage",
		Attestation: "0xattestation",
	}}}, nil
}

func pendingResponse() (*MessagesResponse, error) {
	return &MessagesResponse{Messages: []Message{{Status: StatusPending}}}, nil
}

func notFound() (*MessagesResponse, error) {
	return nil, &ErrorResponse{StatusCode: 404, Message: "Message not found"}
}

func newTestWaiter(client MessagesClient) *Waiter {
	return NewWaiter(client, zap.NewNop(), WithPollInterval(time.Millisecond), WithMaxAttempts(30))
}

func TestWaitForAttestationImmediatelyComplete(t *testing.T) {
	client := &scriptedClient{script: []func() (*MessagesResponse, error){completeResponse}}

	attestation, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.NoError(t, err)
	assert.Equal(t, "0xmessage", attestation.Message)
	assert.Equal(t, "0xattestation", attestation.Attestation)
	assert.Equal(t, 1, client.calls)
}

func TestWaitForAttestationEventuallyComplete(t *testing.T) {
	script := make([]func() (*MessagesResponse, error), 0, 15)
	for i := 0; i < 7; i++ {
		script = append(script, notFound)
	}
	for i := 0; i < 7; i++ {
		script = append(script, pendingResponse)
	}
	script = append(script, completeResponse)
	client := &scriptedClient{script: script}

	attestation, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.NoError(t, err)
	assert.NotNil(t, attestation)
	assert.Equal(t, 15, client.calls)
}

func TestWaitForAttestationCompleteOnFinalAttempt(t *testing.T) {
	script := make([]func() (*MessagesResponse, error), 0, 30)
	for i := 0; i < 29; i++ {
		script = append(script, notFound)
	}
	script = append(script, completeResponse)
	client := &scriptedClient{script: script}

	attestation, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.NoError(t, err)
	assert.NotNil(t, attestation)
	assert.Equal(t, 30, client.calls)
}

func TestWaitForAttestationTimesOutAfterCeiling(t *testing.T) {
	client := &scriptedClient{script: []func() (*MessagesResponse, error){notFound}}

	attestation, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.Error(t, err)
	assert.True(t, domainerrors.IsAttestationTimeout(err))
	assert.Nil(t, attestation)
	// Exactly the configured ceiling, never one more
	assert.Equal(t, 30, client.calls)
}

func TestWaitForAttestationNoMessagesIsRetried(t *testing.T) {
	client := &scriptedClient{script: []func() (*MessagesResponse, error){
		func() (*MessagesResponse, error) { return nil, ErrNoMessages },
		completeResponse,
	}}

	attestation, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.NoError(t, err)
	assert.NotNil(t, attestation)
	assert.Equal(t, 2, client.calls)
}

func TestWaitForAttestationOtherErrorAborts(t *testing.T) {
	boom := errors.New("connection reset")
	client := &scriptedClient{script: []func() (*MessagesResponse, error){
		func() (*MessagesResponse, error) { return nil, boom },
	}}

	_, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// Aborted on the first attempt rather than burning the polling window
	assert.Equal(t, 1, client.calls)
}

func TestWaitForAttestationRateLimitErrorAborts(t *testing.T) {
	client := &scriptedClient{script: []func() (*MessagesResponse, error){
		func() (*MessagesResponse, error) {
			return nil, &ErrorResponse{StatusCode: 429, Message: "Too many requests"}
		},
	}}

	_, err := newTestWaiter(client).WaitForAttestation(context.Background(), 0, "0xburn")
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}
