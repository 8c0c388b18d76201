package ports

import (
	"context"
	"time"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
)

// RevokeUserPermissionInput captures the deactivation metadata persisted
// alongside a revoke. Revocation is monotonic: active records become
// inactive, never the other way around.
type RevokeUserPermissionInput struct {
	UserID       string
	ResourceType string
	ResourceName string
	RevokedBy    string
	Reason       string
	RevokedAt    time.Time
}

// PermissionStore is the boundary for all persisted permission state and
// cross-service lookups. Lookups that can legitimately miss return a found
// flag instead of an error; errors are reserved for storage faults.
type PermissionStore interface {
	// Resource permission configuration.
	CreateResourcePermission(ctx context.Context, permission entities.ResourcePermission) error
	UpdateResourcePermission(ctx context.Context, permission entities.ResourcePermission) error
	GetResourcePermission(ctx context.Context, resourceType, resourceName string) (entities.ResourcePermission, bool, error)
	ListResourcePermissions(ctx context.Context) ([]entities.ResourcePermission, error)

	// Explicit user grants. GrantUserPermission upserts on the record key
	// with last-write-wins semantics. RevokeUserPermission reports whether
	// an active record was deactivated.
	GrantUserPermission(ctx context.Context, record entities.UserPermissionRecord) error
	RevokeUserPermission(ctx context.Context, input RevokeUserPermissionInput) (bool, error)
	GetUserPermission(ctx context.Context, userID, resourceType, resourceName string) (entities.UserPermissionRecord, bool, error)
	ListUserPermissions(ctx context.Context, userID string) ([]entities.UserPermissionRecord, error)
	ListOrganizationGrantedPermissions(ctx context.Context, organizationID string) ([]entities.UserPermissionRecord, error)

	// Organization-level unlocks.
	UpsertOrganizationPermission(ctx context.Context, permission entities.OrganizationPermission) error
	GetOrganizationPermission(ctx context.Context, organizationID, resourceType, resourceName string) (entities.OrganizationPermission, bool, error)
	ListOrganizationPermissions(ctx context.Context, organizationID string) ([]entities.OrganizationPermission, error)
	DeleteOrganizationPermissions(ctx context.Context, organizationID string) (int, error)

	// Cross-service account lookups.
	GetUserInfo(ctx context.Context, userID string) (entities.UserInfo, bool, error)
	GetOrganizationInfo(ctx context.Context, organizationID string) (entities.OrganizationInfo, bool, error)
	IsOrganizationMember(ctx context.Context, organizationID, userID string) (bool, error)

	// Reporting and maintenance.
	GetUserPermissionSummary(ctx context.Context, userID string) (entities.PermissionSummary, error)
	LogPermissionAction(ctx context.Context, entry entities.AuditLogEntry) error
	GetServiceStatistics(ctx context.Context) (entities.ServiceStatistics, error)
	CleanupExpiredPermissions(ctx context.Context, now time.Time) (int, error)
}
