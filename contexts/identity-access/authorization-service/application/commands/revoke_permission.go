package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "aegis/contexts/identity-access/authorization-service/domain/errors"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// RevokePermissionCommand contains transport-agnostic input for one revoke.
type RevokePermissionCommand struct {
	UserID       string
	ResourceType string
	ResourceName string
	RevokedBy    string
	Reason       string
}

// RevokePermissionUseCase deactivates an explicit grant. Revoking a key
// with no active record is an idempotent no-op returning false.
type RevokePermissionUseCase struct {
	Store     ports.PermissionStore
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (u RevokePermissionUseCase) Execute(ctx context.Context, cmd RevokePermissionCommand) (ok bool, err error) {
	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("revoke permission panicked: %v", r)
			logger.Error("revoke permission panicked",
				"event", "authz_revoke_panicked",
				"module", "identity-access/authorization-service",
				"layer", "application",
				"user_id", cmd.UserID,
				"resource_type", cmd.ResourceType,
				"resource_name", cmd.ResourceName,
				"error", err.Error(),
			)
			u.audit(ctx, cmd, "", false, err.Error(), now, logger)
		}
	}()

	if strings.TrimSpace(cmd.UserID) == "" {
		u.audit(ctx, cmd, "", false, domainerrors.ErrInvalidUserID.Error(), now, logger)
		return false, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.ResourceType) == "" || strings.TrimSpace(cmd.ResourceName) == "" {
		u.audit(ctx, cmd, "", false, domainerrors.ErrInvalidResourceKey.Error(), now, logger)
		return false, domainerrors.ErrInvalidResourceKey
	}

	// Previous level for the audit trail and outbound event. A lookup
	// failure here must not block the revoke itself.
	previousLevel := "none"
	record, found, err := u.Store.GetUserPermission(ctx, cmd.UserID, cmd.ResourceType, cmd.ResourceName)
	if err != nil {
		logger.Warn("revoke permission prior lookup failed",
			"event", "authz_revoke_prior_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
	} else if found {
		previousLevel = string(record.AccessLevel)
	}

	revoked, err := u.Store.RevokeUserPermission(ctx, ports.RevokeUserPermissionInput{
		UserID:       cmd.UserID,
		ResourceType: cmd.ResourceType,
		ResourceName: cmd.ResourceName,
		RevokedBy:    cmd.RevokedBy,
		Reason:       cmd.Reason,
		RevokedAt:    now,
	})
	if err != nil {
		logger.Error("revoke permission write failed",
			"event", "authz_revoke_write_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
		u.audit(ctx, cmd, previousLevel, false, err.Error(), now, logger)
		return false, err
	}
	if !revoked {
		u.audit(ctx, cmd, previousLevel, false, "no active permission to revoke", now, logger)
		return false, nil
	}

	u.audit(ctx, cmd, previousLevel, true, "", now, logger)
	u.publishRevoked(ctx, cmd, previousLevel, now, logger)

	logger.Info("revoke permission completed",
		"event", "authz_revoke_completed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", cmd.UserID,
		"resource_type", cmd.ResourceType,
		"resource_name", cmd.ResourceName,
		"previous_level", previousLevel,
	)
	return true, nil
}

func (u RevokePermissionUseCase) audit(
	ctx context.Context,
	cmd RevokePermissionCommand,
	previousLevel string,
	success bool,
	errorText string,
	now time.Time,
	logger *slog.Logger,
) {
	entry := entities.AuditLogEntry{
		ActorID:      cmd.RevokedBy,
		UserID:       cmd.UserID,
		ResourceType: cmd.ResourceType,
		ResourceName: cmd.ResourceName,
		Action:       auditActionRevoke,
		OldLevel:     previousLevel,
		NewLevel:     string(entities.AccessLevelNone),
		Success:      success,
		ErrorText:    errorText,
		CreatedAt:    now,
	}
	if err := u.Store.LogPermissionAction(ctx, entry); err != nil {
		logger.Error("revoke permission audit write failed",
			"event", "authz_revoke_audit_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u RevokePermissionUseCase) publishRevoked(
	ctx context.Context,
	cmd RevokePermissionCommand,
	previousLevel string,
	now time.Time,
	logger *slog.Logger,
) {
	if u.Publisher == nil {
		return
	}
	event := ports.Event{
		EventType: "authorization.permission.revoked",
		Source:    "authorization-service",
		Timestamp: now.Format(time.RFC3339),
		Data: map[string]any{
			"user_id":        cmd.UserID,
			"resource_type":  cmd.ResourceType,
			"resource_name":  cmd.ResourceName,
			"previous_level": previousLevel,
			"revoked_by":     cmd.RevokedBy,
			"reason":         cmd.Reason,
		},
	}
	if err := u.Publisher.Publish(ctx, event); err != nil {
		logger.Warn("permission revoked event publish failed",
			"event", "authz_revoked_event_publish_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u RevokePermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
