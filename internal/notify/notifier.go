package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/domain"
)

// CodeContext carries display metadata for a code delivery.
type CodeContext struct {
	Kind        domain.VerificationKind
	DisplayName string
	Role        domain.Role
}

// Notifier delivers one-time codes to a recipient. Implementations report
// success as a boolean and never propagate failures past this boundary.
type Notifier interface {
	SendCode(ctx context.Context, email, code string, info CodeContext) bool
}

// NewNotifier selects the SMTP notifier when a mail host is configured,
// otherwise a log-only notifier suitable for development.
func NewNotifier(cfg config.MailConfig, logger *zap.Logger) Notifier {
	if cfg.Host != "" {
		return NewSMTPNotifier(cfg, logger)
	}
	return NewLogNotifier(logger)
}
