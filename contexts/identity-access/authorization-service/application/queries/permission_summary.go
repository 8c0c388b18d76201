package queries

import (
	"context"
	"log/slog"
	"strings"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "aegis/contexts/identity-access/authorization-service/domain/errors"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// PermissionSummaryUseCase returns a user's explicit permission records
// together with the account context consulted during resolution.
type PermissionSummaryUseCase struct {
	Store  ports.PermissionStore
	Logger *slog.Logger
}

func (u PermissionSummaryUseCase) Execute(ctx context.Context, userID string) (entities.PermissionSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.PermissionSummary{}, domainerrors.ErrInvalidUserID
	}

	logger := application.ResolveLogger(u.Logger)
	summary, err := u.Store.GetUserPermissionSummary(ctx, userID)
	if err != nil {
		logger.Error("permission summary lookup failed",
			"event", "authz_summary_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return entities.PermissionSummary{}, err
	}
	return summary, nil
}

// ServiceStatisticsUseCase surfaces operational counters for monitoring.
type ServiceStatisticsUseCase struct {
	Store  ports.PermissionStore
	Logger *slog.Logger
}

func (u ServiceStatisticsUseCase) Execute(ctx context.Context) (entities.ServiceStatistics, error) {
	logger := application.ResolveLogger(u.Logger)
	stats, err := u.Store.GetServiceStatistics(ctx)
	if err != nil {
		logger.Error("service statistics lookup failed",
			"event", "authz_statistics_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.ServiceStatistics{}, err
	}
	return stats, nil
}
