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
	"aegis/contexts/identity-access/authorization-service/domain/services"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// GrantPermissionCommand contains transport-agnostic input for one grant.
type GrantPermissionCommand struct {
	UserID         string
	ResourceType   string
	ResourceName   string
	AccessLevel    entities.AccessLevel
	Source         entities.PermissionSource
	GrantedBy      string
	OrganizationID string
	ExpiresAt      *time.Time
	Reason         string
}

// GrantPermissionUseCase persists an explicit user grant with upsert
// semantics, writes one audit entry per attempt, and publishes a granted
// event on success. A missing target user, a persistence failure, or an
// adapter panic yields false; none escapes as an unhandled fault.
type GrantPermissionUseCase struct {
	Store       ports.PermissionStore
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

const (
	auditActionGrant  = "grant"
	auditActionRevoke = "revoke"
)

func (u GrantPermissionUseCase) Execute(ctx context.Context, cmd GrantPermissionCommand) (ok bool, err error) {
	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("grant permission panicked: %v", r)
			logger.Error("grant permission panicked",
				"event", "authz_grant_panicked",
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

	if err := u.validate(cmd, now); err != nil {
		u.audit(ctx, cmd, "", false, err.Error(), now, logger)
		return false, err
	}

	logger.Info("grant permission started",
		"event", "authz_grant_started",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", cmd.UserID,
		"resource_type", cmd.ResourceType,
		"resource_name", cmd.ResourceName,
		"access_level", string(cmd.AccessLevel),
		"source", string(cmd.Source),
		"granted_by", cmd.GrantedBy,
	)

	_, found, err := u.Store.GetUserInfo(ctx, cmd.UserID)
	if err != nil {
		logger.Error("grant permission user lookup failed",
			"event", "authz_grant_user_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"error", err.Error(),
		)
		u.audit(ctx, cmd, "", false, err.Error(), now, logger)
		return false, err
	}
	if !found {
		u.audit(ctx, cmd, "", false, domainerrors.ErrUserNotFound.Error(), now, logger)
		return false, domainerrors.ErrUserNotFound
	}

	// Previous level, recorded for the audit trail. Upsert replaces it.
	previousLevel := ""
	if prior, ok, err := u.Store.GetUserPermission(ctx, cmd.UserID, cmd.ResourceType, cmd.ResourceName); err == nil && ok {
		previousLevel = string(prior.AccessLevel)
	}

	record := entities.UserPermissionRecord{
		RecordID:       u.newID(ctx),
		UserID:         cmd.UserID,
		ResourceType:   cmd.ResourceType,
		ResourceName:   cmd.ResourceName,
		AccessLevel:    cmd.AccessLevel,
		Source:         cmd.Source,
		GrantedBy:      cmd.GrantedBy,
		OrganizationID: cmd.OrganizationID,
		Reason:         cmd.Reason,
		GrantedAt:      now,
		ExpiresAt:      cmd.ExpiresAt,
		IsActive:       true,
	}
	if err := u.Store.GrantUserPermission(ctx, record); err != nil {
		logger.Error("grant permission write failed",
			"event", "authz_grant_write_failed",
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

	u.audit(ctx, cmd, previousLevel, true, "", now, logger)
	u.publishGranted(ctx, cmd, now, logger)

	logger.Info("grant permission completed",
		"event", "authz_grant_completed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", cmd.UserID,
		"resource_type", cmd.ResourceType,
		"resource_name", cmd.ResourceName,
		"access_level", string(cmd.AccessLevel),
	)
	return true, nil
}

func (u GrantPermissionUseCase) validate(cmd GrantPermissionCommand, now time.Time) error {
	if strings.TrimSpace(cmd.UserID) == "" {
		return domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.ResourceType) == "" || strings.TrimSpace(cmd.ResourceName) == "" {
		return domainerrors.ErrInvalidResourceKey
	}
	if !services.ValidAccessLevel(cmd.AccessLevel) {
		return domainerrors.ErrInvalidAccessLevel
	}
	if !services.ValidSource(cmd.Source) {
		return domainerrors.ErrInvalidSource
	}
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(now) {
		return domainerrors.ErrExpiryNotInFuture
	}
	return nil
}

func (u GrantPermissionUseCase) audit(
	ctx context.Context,
	cmd GrantPermissionCommand,
	previousLevel string,
	success bool,
	errorText string,
	now time.Time,
	logger *slog.Logger,
) {
	entry := entities.AuditLogEntry{
		ActorID:      cmd.GrantedBy,
		UserID:       cmd.UserID,
		ResourceType: cmd.ResourceType,
		ResourceName: cmd.ResourceName,
		Action:       auditActionGrant,
		OldLevel:     previousLevel,
		NewLevel:     string(cmd.AccessLevel),
		Success:      success,
		ErrorText:    errorText,
		CreatedAt:    now,
	}
	if err := u.Store.LogPermissionAction(ctx, entry); err != nil {
		logger.Error("grant permission audit write failed",
			"event", "authz_grant_audit_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u GrantPermissionUseCase) publishGranted(
	ctx context.Context,
	cmd GrantPermissionCommand,
	now time.Time,
	logger *slog.Logger,
) {
	if u.Publisher == nil {
		return
	}
	data := map[string]any{
		"user_id":       cmd.UserID,
		"resource_type": cmd.ResourceType,
		"resource_name": cmd.ResourceName,
		"access_level":  string(cmd.AccessLevel),
		"source":        string(cmd.Source),
		"granted_by":    cmd.GrantedBy,
		"reason":        cmd.Reason,
	}
	if cmd.OrganizationID != "" {
		data["organization_id"] = cmd.OrganizationID
	}
	if cmd.ExpiresAt != nil {
		data["expires_at"] = cmd.ExpiresAt.UTC().Format(time.RFC3339)
	}
	event := ports.Event{
		EventType: "authorization.permission.granted",
		Source:    "authorization-service",
		Timestamp: now.Format(time.RFC3339),
		Data:      data,
	}
	if err := u.Publisher.Publish(ctx, event); err != nil {
		logger.Warn("permission granted event publish failed",
			"event", "authz_granted_event_publish_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u GrantPermissionUseCase) newID(ctx context.Context) string {
	if u.IDGenerator == nil {
		return ""
	}
	id, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ""
	}
	return id
}

func (u GrantPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
