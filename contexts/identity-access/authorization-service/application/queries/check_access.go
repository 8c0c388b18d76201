package queries

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

// CheckAccessQuery is the request model for one access-check resolution.
type CheckAccessQuery struct {
	UserID        string
	ResourceType  string
	ResourceName  string
	RequiredLevel entities.AccessLevel
	// OrganizationID optionally overrides the user's own organization.
	OrganizationID string
}

// CheckAccessUseCase resolves access through the priority cascade:
// admin grant, organization permission, subscription permission, other
// user-specific grant, then system-default deny. Store failures at any
// step convert to a deny result; exactly one audit entry is written per
// call regardless of outcome.
type CheckAccessUseCase struct {
	Store     ports.PermissionStore
	Publisher ports.EventPublisher
	Clock     ports.Clock
	// EnforceExpiry makes expired-but-active records non-granting in the
	// admin-grant and user-specific branches. The reference behavior keeps
	// it off: expiry is validated at grant time only.
	EnforceExpiry bool
	Logger        *slog.Logger
}

const (
	auditActionGrant = "grant"
	auditActionDeny  = "deny"
	auditActionError = "error"
)

// Execute evaluates the cascade and returns a complete result. The only
// errors returned are for malformed input; every other failure, a store
// adapter panic included, is folded into a deny decision.
func (u CheckAccessUseCase) Execute(ctx context.Context, query CheckAccessQuery) (result entities.AccessCheckResult, err error) {
	if strings.TrimSpace(query.UserID) == "" {
		return entities.AccessCheckResult{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(query.ResourceType) == "" || strings.TrimSpace(query.ResourceName) == "" {
		return entities.AccessCheckResult{}, domainerrors.ErrInvalidResourceKey
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	defer func() {
		if r := recover(); r != nil {
			result = u.errorResult(u.baseResult(query, now), fmt.Errorf("access check panicked: %v", r), logger)
			err = nil
			u.writeAudit(ctx, query, result, auditActionError, logger)
		}
	}()
	logger.Debug("access check started",
		"event", "authz_check_started",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", query.UserID,
		"resource_type", query.ResourceType,
		"resource_name", query.ResourceName,
		"required_level", string(query.RequiredLevel),
	)

	resolved, action, publishDenial := u.resolve(ctx, query, now, logger)
	result = resolved
	u.writeAudit(ctx, query, result, action, logger)
	if publishDenial {
		u.publishDenied(ctx, query, result, now, logger)
	}

	if result.HasAccess {
		logger.Debug("access check allowed",
			"event", "authz_check_allowed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"resource_type", query.ResourceType,
			"resource_name", query.ResourceName,
			"source", string(result.Source),
		)
	} else {
		logger.Warn("access check denied",
			"event", "authz_check_denied",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"resource_type", query.ResourceType,
			"resource_name", query.ResourceName,
			"reason", result.Reason,
		)
	}
	return result, nil
}

func (u CheckAccessUseCase) resolve(
	ctx context.Context,
	query CheckAccessQuery,
	now time.Time,
	logger *slog.Logger,
) (result entities.AccessCheckResult, action string, publishDenial bool) {
	base := u.baseResult(query, now)

	user, found, err := u.Store.GetUserInfo(ctx, query.UserID)
	if err != nil {
		return u.errorResult(base, err, logger), auditActionError, false
	}
	if !found || !user.IsActive {
		base.Reason = "user not found or inactive"
		return base, auditActionDeny, false
	}
	base.SubscriptionTier = user.SubscriptionTier

	// Admin-granted permission overrides everything else.
	record, recordFound, err := u.Store.GetUserPermission(ctx, query.UserID, query.ResourceType, query.ResourceName)
	if err != nil {
		return u.errorResult(base, err, logger), auditActionError, false
	}
	if recordFound && u.recordGrants(record, now) && record.Source == entities.SourceAdminGrant &&
		services.LevelSufficient(record.AccessLevel, query.RequiredLevel) {
		base.HasAccess = true
		base.AccessLevel = record.AccessLevel
		base.Source = entities.SourceAdminGrant
		base.ExpiresAt = record.ExpiresAt
		base.Reason = "admin-granted permission"
		return base, auditActionGrant, false
	}

	// Organization permission, gated by membership, org state, and plan.
	organizationID := strings.TrimSpace(query.OrganizationID)
	if organizationID == "" {
		organizationID = strings.TrimSpace(user.OrganizationID)
	}
	if organizationID != "" {
		base.Metadata["organization_id"] = organizationID
		granted, orgResult, err := u.resolveOrganization(ctx, query, base, organizationID, now)
		if err != nil {
			return u.errorResult(base, err, logger), auditActionError, false
		}
		if granted {
			return orgResult, auditActionGrant, false
		}
		base.OrganizationPlan = orgResult.OrganizationPlan
	}

	// Subscription permission from the resource configuration.
	config, configFound, err := u.Store.GetResourcePermission(ctx, query.ResourceType, query.ResourceName)
	if err != nil {
		return u.errorResult(base, err, logger), auditActionError, false
	}
	if configFound && config.Enabled &&
		services.TierSufficient(user.SubscriptionTier, config.RequiredTier) &&
		services.LevelSufficient(config.AccessLevel, query.RequiredLevel) {
		base.HasAccess = true
		base.AccessLevel = config.AccessLevel
		base.Source = entities.SourceSubscription
		base.Reason = fmt.Sprintf("subscription tier %s unlocks %s", user.SubscriptionTier, config.AccessLevel)
		return base, auditActionGrant, false
	}

	// Remaining user-specific grant from any non-admin source.
	if recordFound && u.recordGrants(record, now) && record.Source != entities.SourceAdminGrant &&
		services.LevelSufficient(record.AccessLevel, query.RequiredLevel) {
		base.HasAccess = true
		base.AccessLevel = record.AccessLevel
		base.Source = record.Source
		base.ExpiresAt = record.ExpiresAt
		base.Reason = fmt.Sprintf("user-specific permission from %s", record.Source)
		return base, auditActionGrant, false
	}

	base.Reason = u.denialReason(query, user, config, configFound)
	return base, auditActionDeny, true
}

func (u CheckAccessUseCase) resolveOrganization(
	ctx context.Context,
	query CheckAccessQuery,
	base entities.AccessCheckResult,
	organizationID string,
	now time.Time,
) (bool, entities.AccessCheckResult, error) {
	member, err := u.Store.IsOrganizationMember(ctx, organizationID, query.UserID)
	if err != nil {
		return false, base, err
	}
	if !member {
		return false, base, nil
	}

	org, found, err := u.Store.GetOrganizationInfo(ctx, organizationID)
	if err != nil {
		return false, base, err
	}
	if !found || !org.IsActive {
		return false, base, nil
	}
	base.OrganizationPlan = org.Plan

	permission, found, err := u.Store.GetOrganizationPermission(ctx, organizationID, query.ResourceType, query.ResourceName)
	if err != nil {
		return false, base, err
	}
	if !found || !permission.Enabled {
		return false, base, nil
	}
	if !services.PlanSufficient(org.Plan, permission.RequiredPlan) {
		return false, base, nil
	}
	if !services.LevelSufficient(permission.AccessLevel, query.RequiredLevel) {
		return false, base, nil
	}

	base.HasAccess = true
	base.AccessLevel = permission.AccessLevel
	base.Source = entities.SourceOrganization
	base.Reason = fmt.Sprintf("organization %s permission", organizationID)
	return true, base, nil
}

func (u CheckAccessUseCase) baseResult(query CheckAccessQuery, now time.Time) entities.AccessCheckResult {
	return entities.AccessCheckResult{
		UserID:       query.UserID,
		ResourceType: query.ResourceType,
		ResourceName: query.ResourceName,
		AccessLevel:  entities.AccessLevelNone,
		Source:       entities.SourceSystemDefault,
		CheckedAt:    now,
		Metadata: map[string]any{
			"required_level": string(query.RequiredLevel),
		},
	}
}

// recordGrants applies the active flag and, when expiry enforcement is on,
// the record's expiry.
func (u CheckAccessUseCase) recordGrants(record entities.UserPermissionRecord, now time.Time) bool {
	if !record.IsActive {
		return false
	}
	if u.EnforceExpiry && record.Expired(now) {
		return false
	}
	return true
}

func (u CheckAccessUseCase) denialReason(
	query CheckAccessQuery,
	user entities.UserInfo,
	config entities.ResourcePermission,
	configFound bool,
) string {
	if configFound && config.Enabled && !services.TierSufficient(user.SubscriptionTier, config.RequiredTier) {
		return fmt.Sprintf("subscription tier %s below required %s for %s/%s",
			user.SubscriptionTier, config.RequiredTier, query.ResourceType, query.ResourceName)
	}
	return fmt.Sprintf("no permission source grants %s on %s/%s",
		query.RequiredLevel, query.ResourceType, query.ResourceName)
}

func (u CheckAccessUseCase) errorResult(
	base entities.AccessCheckResult,
	err error,
	logger *slog.Logger,
) entities.AccessCheckResult {
	logger.Error("access check store lookup failed, deny by default",
		"event", "authz_check_lookup_failed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", base.UserID,
		"resource_type", base.ResourceType,
		"resource_name", base.ResourceName,
		"error", err.Error(),
	)
	base.HasAccess = false
	base.AccessLevel = entities.AccessLevelNone
	base.Source = entities.SourceSystemDefault
	base.Reason = err.Error()
	return base
}

func (u CheckAccessUseCase) writeAudit(
	ctx context.Context,
	query CheckAccessQuery,
	result entities.AccessCheckResult,
	action string,
	logger *slog.Logger,
) {
	entry := entities.AuditLogEntry{
		ActorID:      query.UserID,
		UserID:       query.UserID,
		ResourceType: query.ResourceType,
		ResourceName: query.ResourceName,
		Action:       action,
		NewLevel:     string(result.AccessLevel),
		Success:      result.HasAccess,
		CreatedAt:    result.CheckedAt,
	}
	if action == auditActionError {
		entry.ErrorText = result.Reason
	}
	if err := u.Store.LogPermissionAction(ctx, entry); err != nil {
		logger.Error("access check audit write failed",
			"event", "authz_check_audit_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"resource_type", query.ResourceType,
			"resource_name", query.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u CheckAccessUseCase) publishDenied(
	ctx context.Context,
	query CheckAccessQuery,
	result entities.AccessCheckResult,
	now time.Time,
	logger *slog.Logger,
) {
	if u.Publisher == nil {
		return
	}
	event := ports.Event{
		EventType: "authorization.access.denied",
		Source:    "authorization-service",
		Timestamp: now.Format(time.RFC3339),
		Data: map[string]any{
			"user_id":        query.UserID,
			"resource_type":  query.ResourceType,
			"resource_name":  query.ResourceName,
			"required_level": string(query.RequiredLevel),
			"reason":         result.Reason,
		},
	}
	if err := u.Publisher.Publish(ctx, event); err != nil {
		logger.Warn("access denied event publish failed",
			"event", "authz_denied_event_publish_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"resource_type", query.ResourceType,
			"resource_name", query.ResourceName,
			"error", err.Error(),
		)
	}
}

func (u CheckAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
