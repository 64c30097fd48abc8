package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier reports deliveries to the log instead of sending mail.
// Development only; it always succeeds.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendCode logs the delivery and succeeds.
func (n *LogNotifier) SendCode(_ context.Context, email, code string, info CodeContext) bool {
	n.logger.Info("code delivery (log notifier)",
		zap.String("email", email),
		zap.String("code", code),
		zap.String("kind", string(info.Kind)))
	return true
}
