package worker

import (
	"context"
	"time"

	"github.com/spec-kit/agrisupport/internal/service"
)

// StartAuditWorker registers audit handlers on the dispatcher.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}

// StartVerificationSweeper purges used and expired verification codes on an
// interval until ctx is cancelled.
func StartVerificationSweeper(ctx context.Context, verifications *service.VerificationService, interval time.Duration) {
	if verifications == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				verifications.SweepExpired(ctx)
			}
		}
	}()
}
