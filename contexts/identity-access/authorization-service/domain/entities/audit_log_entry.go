package entities

import "time"

// AuditLogEntry is the immutable trace of one check, grant, or revoke
// attempt. Exactly one entry is written per operation regardless of outcome.
type AuditLogEntry struct {
	AuditID      string    `json:"audit_id"`
	ActorID      string    `json:"actor_id"`
	UserID       string    `json:"user_id"`
	ResourceType string    `json:"resource_type"`
	ResourceName string    `json:"resource_name"`
	Action       string    `json:"action"`
	OldLevel     string    `json:"old_level,omitempty"`
	NewLevel     string    `json:"new_level,omitempty"`
	Success      bool      `json:"success"`
	ErrorText    string    `json:"error_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
