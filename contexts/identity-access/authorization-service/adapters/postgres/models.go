package postgresadapter

import (
	"time"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
)

type resourcePermissionModel struct {
	ResourceType string    `gorm:"column:resource_type;primaryKey"`
	ResourceName string    `gorm:"column:resource_name;primaryKey"`
	RequiredTier string    `gorm:"column:required_tier"`
	AccessLevel  string    `gorm:"column:access_level"`
	Category     string    `gorm:"column:category"`
	Description  string    `gorm:"column:description"`
	Enabled      bool      `gorm:"column:enabled"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (resourcePermissionModel) TableName() string {
	return "resource_permissions"
}

func resourcePermissionFromEntity(permission entities.ResourcePermission) resourcePermissionModel {
	return resourcePermissionModel{
		ResourceType: permission.ResourceType,
		ResourceName: permission.ResourceName,
		RequiredTier: string(permission.RequiredTier),
		AccessLevel:  string(permission.AccessLevel),
		Category:     permission.Category,
		Description:  permission.Description,
		Enabled:      permission.Enabled,
		CreatedAt:    permission.CreatedAt,
		UpdatedAt:    permission.UpdatedAt,
	}
}

func (m resourcePermissionModel) toEntity() entities.ResourcePermission {
	return entities.ResourcePermission{
		ResourceType: m.ResourceType,
		ResourceName: m.ResourceName,
		RequiredTier: entities.SubscriptionTier(m.RequiredTier),
		AccessLevel:  entities.AccessLevel(m.AccessLevel),
		Category:     m.Category,
		Description:  m.Description,
		Enabled:      m.Enabled,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type userPermissionModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	UserID         string     `gorm:"column:user_id"`
	ResourceType   string     `gorm:"column:resource_type"`
	ResourceName   string     `gorm:"column:resource_name"`
	AccessLevel    string     `gorm:"column:access_level"`
	Source         string     `gorm:"column:source"`
	GrantedBy      string     `gorm:"column:granted_by"`
	OrganizationID *string    `gorm:"column:organization_id"`
	Reason         string     `gorm:"column:reason"`
	GrantedAt      time.Time  `gorm:"column:granted_at"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
	IsActive       bool       `gorm:"column:is_active"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
	RevokedBy      string     `gorm:"column:revoked_by"`
}

func (userPermissionModel) TableName() string {
	return "user_permissions"
}

func userPermissionFromEntity(record entities.UserPermissionRecord) userPermissionModel {
	row := userPermissionModel{
		ID:           record.RecordID,
		UserID:       record.UserID,
		ResourceType: record.ResourceType,
		ResourceName: record.ResourceName,
		AccessLevel:  string(record.AccessLevel),
		Source:       string(record.Source),
		GrantedBy:    record.GrantedBy,
		Reason:       record.Reason,
		GrantedAt:    record.GrantedAt,
		ExpiresAt:    record.ExpiresAt,
		IsActive:     record.IsActive,
		RevokedAt:    record.RevokedAt,
		RevokedBy:    record.RevokedBy,
	}
	if record.OrganizationID != "" {
		organizationID := record.OrganizationID
		row.OrganizationID = &organizationID
	}
	return row
}

func (m userPermissionModel) toEntity() entities.UserPermissionRecord {
	record := entities.UserPermissionRecord{
		RecordID:     m.ID,
		UserID:       m.UserID,
		ResourceType: m.ResourceType,
		ResourceName: m.ResourceName,
		AccessLevel:  entities.AccessLevel(m.AccessLevel),
		Source:       entities.PermissionSource(m.Source),
		GrantedBy:    m.GrantedBy,
		Reason:       m.Reason,
		GrantedAt:    m.GrantedAt,
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
		RevokedAt:    m.RevokedAt,
		RevokedBy:    m.RevokedBy,
	}
	if m.OrganizationID != nil {
		record.OrganizationID = *m.OrganizationID
	}
	return record
}

func toUserPermissionEntities(rows []userPermissionModel) []entities.UserPermissionRecord {
	items := make([]entities.UserPermissionRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type organizationPermissionModel struct {
	OrganizationID string    `gorm:"column:organization_id;primaryKey"`
	ResourceType   string    `gorm:"column:resource_type;primaryKey"`
	ResourceName   string    `gorm:"column:resource_name;primaryKey"`
	AccessLevel    string    `gorm:"column:access_level"`
	RequiredPlan   string    `gorm:"column:required_plan"`
	Enabled        bool      `gorm:"column:enabled"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (organizationPermissionModel) TableName() string {
	return "organization_permissions"
}

func organizationPermissionFromEntity(permission entities.OrganizationPermission) organizationPermissionModel {
	return organizationPermissionModel{
		OrganizationID: permission.OrganizationID,
		ResourceType:   permission.ResourceType,
		ResourceName:   permission.ResourceName,
		AccessLevel:    string(permission.AccessLevel),
		RequiredPlan:   permission.RequiredPlan,
		Enabled:        permission.Enabled,
		CreatedAt:      permission.CreatedAt,
		UpdatedAt:      permission.UpdatedAt,
	}
}

func (m organizationPermissionModel) toEntity() entities.OrganizationPermission {
	return entities.OrganizationPermission{
		OrganizationID: m.OrganizationID,
		ResourceType:   m.ResourceType,
		ResourceName:   m.ResourceName,
		AccessLevel:    entities.AccessLevel(m.AccessLevel),
		RequiredPlan:   m.RequiredPlan,
		Enabled:        m.Enabled,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// userModel and organizationModel are read-only projections replicated from
// the account and organization services.
type userModel struct {
	ID               string  `gorm:"column:id;primaryKey"`
	SubscriptionTier string  `gorm:"column:subscription_tier"`
	OrganizationID   *string `gorm:"column:organization_id"`
	IsActive         bool    `gorm:"column:is_active"`
}

func (userModel) TableName() string {
	return "users"
}

type organizationModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	Plan     string `gorm:"column:plan"`
	IsActive bool   `gorm:"column:is_active"`
}

func (organizationModel) TableName() string {
	return "organizations"
}

type organizationMemberModel struct {
	OrganizationID string `gorm:"column:organization_id;primaryKey"`
	UserID         string `gorm:"column:user_id;primaryKey"`
}

func (organizationMemberModel) TableName() string {
	return "organization_members"
}

type auditLogModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	ActorID      string    `gorm:"column:actor_id"`
	UserID       string    `gorm:"column:user_id"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceName string    `gorm:"column:resource_name"`
	Action       string    `gorm:"column:action"`
	OldLevel     string    `gorm:"column:old_level"`
	NewLevel     string    `gorm:"column:new_level"`
	Success      bool      `gorm:"column:success"`
	ErrorText    string    `gorm:"column:error_text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string {
	return "permission_audit_log"
}
