package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/events"
)

// AuditService records identity lifecycle events for operators. It only ever
// sees lifecycle facts; codes and credentials never reach it.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to identity lifecycle events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventRegistrationStarted, a.handleEvent)
	a.dispatcher.Subscribe(events.EventIdentityActivated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventPasswordReset, a.handleEvent)
	a.dispatcher.Subscribe(events.EventIdentityUpdated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventIdentityDeleted, a.handleEvent)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("identity event",
		zap.String("type", string(event.Type)),
		zap.String("email", event.Email),
		zap.String("identity_id", event.IdentityID),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AuditService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return
	}
	a.logger.Debug("sendWebhookStub",
		zap.String("url", a.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
