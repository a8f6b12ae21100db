// Package notify defines the progress-notification sink the orchestrators
// push step updates to. The chat layer implements it; delivery is
// best-effort and a failed send never aborts an orchestration.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a human-readable progress update to a conversation.
type Notifier interface {
	Notify(ctx context.Context, conversationID, text string)
}

// LogNotifier writes progress updates to the log. Used by the CLI and in
// tests where no chat transport exists.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, conversationID, text string) {
	n.logger.Info("Progress update",
		zap.String("conversation_id", conversationID),
		zap.String("text", text))
}
