package entities

import "time"

// UserPermissionRecord is an explicit grant keyed by
// (user_id, resource_type, resource_name). Re-granting the same key
// overwrites the record; revocation deactivates but never deletes it.
type UserPermissionRecord struct {
	RecordID       string           `json:"record_id"`
	UserID         string           `json:"user_id"`
	ResourceType   string           `json:"resource_type"`
	ResourceName   string           `json:"resource_name"`
	AccessLevel    AccessLevel      `json:"access_level"`
	Source         PermissionSource `json:"source"`
	GrantedBy      string           `json:"granted_by"`
	OrganizationID string           `json:"organization_id,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	GrantedAt      time.Time        `json:"granted_at"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	IsActive       bool             `json:"is_active"`
	RevokedAt      *time.Time       `json:"revoked_at,omitempty"`
	RevokedBy      string           `json:"revoked_by,omitempty"`
}

// Expired reports whether the record carries an expiry that has passed.
func (r UserPermissionRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
