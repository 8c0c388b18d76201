package entities

import "time"

// ResourcePermission is the administrative configuration row for one
// resource key. One active record exists per (resource_type, resource_name).
type ResourcePermission struct {
	ResourceType string           `json:"resource_type"`
	ResourceName string           `json:"resource_name"`
	RequiredTier SubscriptionTier `json:"required_tier"`
	AccessLevel  AccessLevel      `json:"access_level"`
	Category     string           `json:"category"`
	Description  string           `json:"description"`
	Enabled      bool             `json:"enabled"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
