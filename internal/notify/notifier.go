package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/audit"
	"github.com/garyjia/billing-audit/internal/models"
)

const (
	receiveIDTypeChat = "chat_id"
	msgTypeText       = "text"
	sendTimeout       = 10 * time.Second
)

// MessageSender abstracts the chat transport so tests can capture sends.
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Notifier announces completed audit runs to the configured Lark chat.
type Notifier struct {
	sender MessageSender
	chatID string
	logger *zap.Logger
}

// NewNotifier creates a notifier bound to one chat.
func NewNotifier(sender MessageSender, chatID string, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

// NotifyRunCompleted sends the run summary message to the audit chat.
func (n *Notifier) NotifyRunCompleted(ctx context.Context, run *models.AuditRun) error {
	content, err := json.Marshal(map[string]string{"text": runSummaryText(run)})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	messageID, err := n.sender.SendMessage(ctx, receiveIDTypeChat, n.chatID, msgTypeText, string(content))
	if err != nil {
		return err
	}

	n.logger.Info("Run notification sent",
		zap.String("run_id", run.ID),
		zap.String("message_id", messageID))
	return nil
}

// NotifyRunCompletedAsync sends without blocking the caller. Failures are
// logged, never propagated; a lost notification must not fail an audit.
func (n *Notifier) NotifyRunCompletedAsync(run *models.AuditRun) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := n.NotifyRunCompleted(ctx, run); err != nil {
			n.logger.Warn("Failed to send run notification",
				zap.String("run_id", run.ID),
				zap.Error(err))
		}
	}()
}

func runSummaryText(run *models.AuditRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bill audit completed\n")
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "File: %s\n", run.FileName)
	fmt.Fprintf(&b, "Scheme: %s\n", run.Scheme)
	fmt.Fprintf(&b, "Items: %d\n", run.ItemCount)
	fmt.Fprintf(&b, "Billed: ₹%s\n", audit.FormatMoney(run.TotalBilledAmount))
	fmt.Fprintf(&b, "Leakage: ₹%s", audit.FormatMoney(run.TotalLeakageAmount))

	if metrics := decodeMetrics(run.MetricsJSON); metrics != nil {
		fmt.Fprintf(&b, "\nCompliance: %.1f%%", metrics.ComplianceRate*100)
	}

	return b.String()
}

// decodeMetrics tolerates an absent or malformed blob; the message then
// simply omits the compliance line.
func decodeMetrics(raw string) *models.ComplianceMetrics {
	if raw == "" {
		return nil
	}

	var m models.ComplianceMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return &m
}
