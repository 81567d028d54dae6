package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the application log. Used when no delivery
// channel is configured.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(_ context.Context, msg Message) error {
	zap.L().Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.Uint("recipient_id", msg.Recipient.ID),
		zap.String("subject", msg.Subject),
		zap.Bool("has_ticket", len(msg.QRCode()) > 0),
	)

	return nil
}
