package workers

import (
	"context"
	"log/slog"
	"time"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// ExpirySweeper deactivates explicit grants that crossed expires_at.
type ExpirySweeper struct {
	Store  ports.PermissionStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s ExpirySweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	expired, err := s.Store.CleanupExpiredPermissions(ctx, now)
	if err != nil {
		logger.Error("permission expiry sweep failed",
			"event", "authz_expiry_sweep_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if expired > 0 {
		logger.Info("permission expiry sweep completed",
			"event", "authz_expiry_sweep_completed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"expired_count", expired,
		)
	}
	return nil
}
