package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/domain"
)

// SMTPNotifier delivers codes over SMTP with PLAIN auth.
type SMTPNotifier struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPNotifier constructs the notifier.
func NewSMTPNotifier(cfg config.MailConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// SendCode delivers the code by email. The code itself is never logged here.
func (n *SMTPNotifier) SendCode(_ context.Context, email, code string, info CodeContext) bool {
	subject, intro := messageFor(info.Kind)

	greeting := "Hello"
	if info.DisplayName != "" {
		greeting = "Hello " + info.DisplayName
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", email)
	fmt.Fprintf(&body, "Subject: %s\r\n", subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&body, "%s,\n\n%s\n\nYour code is: %s\n\nIf you did not request this, please ignore this email.\n", greeting, intro, code)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{email}, []byte(body.String())); err != nil {
		n.logger.Warn("code delivery failed",
			zap.String("email", email),
			zap.String("kind", string(info.Kind)),
			zap.Error(err))
		return false
	}

	n.logger.Info("code delivered",
		zap.String("email", email),
		zap.String("kind", string(info.Kind)))
	return true
}

func messageFor(kind domain.VerificationKind) (subject, intro string) {
	switch kind {
	case domain.KindPasswordReset:
		return "AgriSupport - Password Reset Code",
			"You have requested to reset your password. This code expires in 15 minutes."
	case domain.KindEmailConfirm:
		return "AgriSupport - Confirm Your Email",
			"Welcome to AgriSupport. Confirm your email to activate your account. This code expires in 30 minutes."
	default:
		return "AgriSupport - Verification Code", "Use the code below to continue."
	}
}
