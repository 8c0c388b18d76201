package entities

import "time"

// UserInfo is the account snapshot consulted during resolution. The
// account service owns the underlying data.
type UserInfo struct {
	UserID           string           `json:"user_id"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	OrganizationID   string           `json:"organization_id,omitempty"`
	IsActive         bool             `json:"is_active"`
}

// OrganizationInfo is the organization snapshot consulted during resolution.
type OrganizationInfo struct {
	OrganizationID string `json:"organization_id"`
	Plan           string `json:"plan"`
	IsActive       bool   `json:"is_active"`
}

// PermissionSummary aggregates a user's explicit records with account context.
type PermissionSummary struct {
	UserID           string                 `json:"user_id"`
	SubscriptionTier SubscriptionTier       `json:"subscription_tier"`
	OrganizationID   string                 `json:"organization_id,omitempty"`
	Records          []UserPermissionRecord `json:"records"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// ServiceStatistics is the operational counter snapshot exposed for monitoring.
type ServiceStatistics struct {
	ResourcePermissions     int       `json:"resource_permissions"`
	ActiveUserPermissions   int       `json:"active_user_permissions"`
	RevokedUserPermissions  int       `json:"revoked_user_permissions"`
	OrganizationPermissions int       `json:"organization_permissions"`
	AuditLogEntries         int       `json:"audit_log_entries"`
	CollectedAt             time.Time `json:"collected_at"`
}
