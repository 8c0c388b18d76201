package entities

import "time"

// OrganizationPermission is an org-level unlock keyed by
// (organization_id, resource_type, resource_name).
type OrganizationPermission struct {
	OrganizationID string      `json:"organization_id"`
	ResourceType   string      `json:"resource_type"`
	ResourceName   string      `json:"resource_name"`
	AccessLevel    AccessLevel `json:"access_level"`
	RequiredPlan   string      `json:"required_plan"`
	Enabled        bool        `json:"enabled"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
