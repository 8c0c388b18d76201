package entities

import "time"

// AccessCheckResult is returned by access-check APIs. It is produced per
// call and never persisted.
type AccessCheckResult struct {
	UserID           string           `json:"user_id"`
	ResourceType     string           `json:"resource_type"`
	ResourceName     string           `json:"resource_name"`
	HasAccess        bool             `json:"has_access"`
	AccessLevel      AccessLevel      `json:"access_level"`
	Source           PermissionSource `json:"permission_source"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier,omitempty"`
	OrganizationPlan string           `json:"organization_plan,omitempty"`
	Reason           string           `json:"reason"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
	CheckedAt        time.Time        `json:"checked_at"`
}
