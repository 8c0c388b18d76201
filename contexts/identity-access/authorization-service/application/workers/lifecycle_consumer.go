package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/application/commands"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
	"aegis/contexts/identity-access/authorization-service/ports"
	"aegis/internal/shared/events"
)

const (
	EventUserDeleted         = "user.deleted"
	EventOrganizationDeleted = "organization.deleted"
	EventOrgMemberAdded      = "organization.member_added"
	EventOrgMemberRemoved    = "organization.member_removed"
)

// LifecycleConsumer keeps permission state consistent with account and
// organization lifecycle events. Handlers are idempotent and tolerant of
// missing fields; per-item failures are logged and never abort the rest
// of a handler's work.
type LifecycleConsumer struct {
	Store    ports.PermissionStore
	Grant    commands.GrantPermissionUseCase
	Revoke   commands.RevokePermissionUseCase
	Dedup    ports.EventDedupStore
	Clock    ports.Clock
	DedupTTL time.Duration
	Logger   *slog.Logger
}

type lifecyclePayload struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	AddedBy        string `json:"added_by"`
	RemovedBy      string `json:"removed_by"`
}

// Handle dispatches one inbound envelope. Unknown event types are ignored.
func (c LifecycleConsumer) Handle(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := c.now()

	if c.Dedup != nil && event.EventID != "" {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
		if err != nil {
			return err
		}
		if alreadyProcessed {
			logger.Debug("lifecycle event already processed",
				"event", "authz_lifecycle_duplicate",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
			)
			return nil
		}
	}

	var payload lifecyclePayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			logger.Error("lifecycle event payload decode failed",
				"event", "authz_lifecycle_decode_failed",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return nil
		}
	}

	switch event.EventType {
	case EventUserDeleted:
		return c.HandleUserDeleted(ctx, payload.UserID)
	case EventOrganizationDeleted:
		return c.HandleOrganizationDeleted(ctx, payload.OrganizationID)
	case EventOrgMemberAdded:
		return c.HandleMemberAdded(ctx, payload.OrganizationID, payload.UserID, payload.AddedBy)
	case EventOrgMemberRemoved:
		return c.HandleMemberRemoved(ctx, payload.OrganizationID, payload.UserID)
	default:
		logger.Debug("lifecycle event ignored",
			"event", "authz_lifecycle_ignored",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"event_type", event.EventType,
		)
		return nil
	}
}

// HandleUserDeleted revokes every explicit permission of a deleted user.
func (c LifecycleConsumer) HandleUserDeleted(ctx context.Context, userID string) error {
	logger := application.ResolveLogger(c.Logger)
	if userID == "" {
		logger.Warn("user deleted event without user_id",
			"event", "authz_lifecycle_missing_field",
			"module", "identity-access/authorization-service",
			"layer", "worker",
		)
		return nil
	}

	records, err := c.Store.ListUserPermissions(ctx, userID)
	if err != nil {
		logger.Error("user deleted permission list failed",
			"event", "authz_user_deleted_list_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"user_id", userID,
			"error", err.Error(),
		)
		return err
	}

	revoked := c.revokeRecords(ctx, records, "user deleted", func(entities.UserPermissionRecord) bool { return true })
	logger.Info("user deleted cleanup completed",
		"event", "authz_user_deleted_completed",
		"module", "identity-access/authorization-service",
		"layer", "worker",
		"user_id", userID,
		"revoked_count", revoked,
	)
	return nil
}

// HandleOrganizationDeleted removes the org's unlock rows and revokes
// every user permission that org granted.
func (c LifecycleConsumer) HandleOrganizationDeleted(ctx context.Context, organizationID string) error {
	logger := application.ResolveLogger(c.Logger)
	if organizationID == "" {
		logger.Warn("organization deleted event without organization_id",
			"event", "authz_lifecycle_missing_field",
			"module", "identity-access/authorization-service",
			"layer", "worker",
		)
		return nil
	}

	deleted, err := c.Store.DeleteOrganizationPermissions(ctx, organizationID)
	if err != nil {
		logger.Error("organization permission delete failed",
			"event", "authz_org_deleted_cleanup_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"organization_id", organizationID,
			"error", err.Error(),
		)
		return err
	}

	records, err := c.Store.ListOrganizationGrantedPermissions(ctx, organizationID)
	if err != nil {
		logger.Error("organization granted permission list failed",
			"event", "authz_org_deleted_list_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"organization_id", organizationID,
			"error", err.Error(),
		)
		return err
	}

	revoked := c.revokeRecords(ctx, records, "organization deleted", func(entities.UserPermissionRecord) bool { return true })
	logger.Info("organization deleted cleanup completed",
		"event", "authz_org_deleted_completed",
		"module", "identity-access/authorization-service",
		"layer", "worker",
		"organization_id", organizationID,
		"deleted_org_permissions", deleted,
		"revoked_count", revoked,
	)
	return nil
}

// HandleMemberAdded mirrors the org's configured unlocks into user records
// for the new member. A key the user already actively holds is left
// untouched, whatever its source, so a more privileged grant is never
// overwritten.
func (c LifecycleConsumer) HandleMemberAdded(ctx context.Context, organizationID, userID, addedBy string) error {
	logger := application.ResolveLogger(c.Logger)
	if organizationID == "" || userID == "" {
		logger.Warn("member added event with missing fields",
			"event", "authz_lifecycle_missing_field",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"organization_id", organizationID,
			"user_id", userID,
		)
		return nil
	}

	permissions, err := c.Store.ListOrganizationPermissions(ctx, organizationID)
	if err != nil {
		logger.Error("member added org permission list failed",
			"event", "authz_member_added_list_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"organization_id", organizationID,
			"user_id", userID,
			"error", err.Error(),
		)
		return err
	}

	created := 0
	for _, permission := range permissions {
		if !permission.Enabled {
			continue
		}
		existing, found, err := c.Store.GetUserPermission(ctx, userID, permission.ResourceType, permission.ResourceName)
		if err != nil {
			logger.Warn("member added existing record lookup failed",
				"event", "authz_member_added_lookup_failed",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"user_id", userID,
				"resource_type", permission.ResourceType,
				"resource_name", permission.ResourceName,
				"error", err.Error(),
			)
			continue
		}
		if found && existing.IsActive {
			continue
		}
		ok, err := c.Grant.Execute(ctx, commands.GrantPermissionCommand{
			UserID:         userID,
			ResourceType:   permission.ResourceType,
			ResourceName:   permission.ResourceName,
			AccessLevel:    permission.AccessLevel,
			Source:         entities.SourceOrganization,
			GrantedBy:      addedBy,
			OrganizationID: organizationID,
			Reason:         "organization membership",
		})
		if err != nil || !ok {
			logger.Warn("member added grant failed",
				"event", "authz_member_added_grant_failed",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"user_id", userID,
				"resource_type", permission.ResourceType,
				"resource_name", permission.ResourceName,
				"error", errorText(err),
			)
			continue
		}
		created++
	}

	logger.Info("member added sync completed",
		"event", "authz_member_added_completed",
		"module", "identity-access/authorization-service",
		"layer", "worker",
		"organization_id", organizationID,
		"user_id", userID,
		"created_count", created,
	)
	return nil
}

// HandleMemberRemoved revokes every ORGANIZATION-sourced permission the
// user holds, regardless of which organization granted it. The coarse
// scope is intentional; downstream consumers depend on it.
func (c LifecycleConsumer) HandleMemberRemoved(ctx context.Context, organizationID, userID string) error {
	logger := application.ResolveLogger(c.Logger)
	if userID == "" {
		logger.Warn("member removed event without user_id",
			"event", "authz_lifecycle_missing_field",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"organization_id", organizationID,
		)
		return nil
	}

	records, err := c.Store.ListUserPermissions(ctx, userID)
	if err != nil {
		logger.Error("member removed permission list failed",
			"event", "authz_member_removed_list_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"user_id", userID,
			"error", err.Error(),
		)
		return err
	}

	revoked := c.revokeRecords(ctx, records, "organization membership removed", func(record entities.UserPermissionRecord) bool {
		return record.Source == entities.SourceOrganization
	})
	logger.Info("member removed cleanup completed",
		"event", "authz_member_removed_completed",
		"module", "identity-access/authorization-service",
		"layer", "worker",
		"organization_id", organizationID,
		"user_id", userID,
		"revoked_count", revoked,
	)
	return nil
}

func (c LifecycleConsumer) revokeRecords(
	ctx context.Context,
	records []entities.UserPermissionRecord,
	reason string,
	match func(entities.UserPermissionRecord) bool,
) int {
	logger := application.ResolveLogger(c.Logger)
	revoked := 0
	for _, record := range records {
		if !record.IsActive || !match(record) {
			continue
		}
		ok, err := c.Revoke.Execute(ctx, commands.RevokePermissionCommand{
			UserID:       record.UserID,
			ResourceType: record.ResourceType,
			ResourceName: record.ResourceName,
			RevokedBy:    "system",
			Reason:       reason,
		})
		if err != nil || !ok {
			logger.Warn("lifecycle revoke failed",
				"event", "authz_lifecycle_revoke_failed",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"user_id", record.UserID,
				"resource_type", record.ResourceType,
				"resource_name", record.ResourceName,
				"error", errorText(err),
			)
			continue
		}
		revoked++
	}
	return revoked
}

func (c LifecycleConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func (c LifecycleConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func errorText(err error) string {
	if err == nil {
		return "operation reported failure"
	}
	return err.Error()
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
