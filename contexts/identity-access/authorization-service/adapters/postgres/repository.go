package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "aegis/contexts/identity-access/authorization-service/domain/errors"
	"aegis/contexts/identity-access/authorization-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm-backed permission store adapter.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateResourcePermission(ctx context.Context, permission entities.ResourcePermission) error {
	row := resourcePermissionFromEntity(permission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("authz_repo_create_resource_failed", err,
			"resource_type", permission.ResourceType,
			"resource_name", permission.ResourceName,
		)
	}
	return nil
}

func (r *Repository) UpdateResourcePermission(ctx context.Context, permission entities.ResourcePermission) error {
	row := resourcePermissionFromEntity(permission)
	update := r.db.WithContext(ctx).Model(&resourcePermissionModel{}).
		Where("resource_type = ? AND resource_name = ?", permission.ResourceType, permission.ResourceName).
		Updates(map[string]any{
			"required_tier": row.RequiredTier,
			"access_level":  row.AccessLevel,
			"category":      row.Category,
			"description":   row.Description,
			"enabled":       row.Enabled,
			"updated_at":    row.UpdatedAt,
		})
	if update.Error != nil {
		return r.logError("authz_repo_update_resource_failed", update.Error,
			"resource_type", permission.ResourceType,
			"resource_name", permission.ResourceName,
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrPermissionNotFound
	}
	return nil
}

func (r *Repository) GetResourcePermission(ctx context.Context, resourceType, resourceName string) (entities.ResourcePermission, bool, error) {
	var row resourcePermissionModel
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_name = ?", resourceType, resourceName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ResourcePermission{}, false, nil
		}
		return entities.ResourcePermission{}, false, r.logError("authz_repo_get_resource_failed", err,
			"resource_type", resourceType,
			"resource_name", resourceName,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListResourcePermissions(ctx context.Context) ([]entities.ResourcePermission, error) {
	var rows []resourcePermissionModel
	if err := r.db.WithContext(ctx).
		Order("resource_type ASC, resource_name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("authz_repo_list_resources_failed", err)
	}
	items := make([]entities.ResourcePermission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// GrantUserPermission upserts on (user_id, resource_type, resource_name)
// with last-write-wins semantics.
func (r *Repository) GrantUserPermission(ctx context.Context, record entities.UserPermissionRecord) error {
	if strings.TrimSpace(record.RecordID) == "" {
		record.RecordID = uuid.NewString()
	}
	row := userPermissionFromEntity(record)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "resource_type"}, {Name: "resource_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"access_level":    row.AccessLevel,
			"source":          row.Source,
			"granted_by":      row.GrantedBy,
			"organization_id": row.OrganizationID,
			"reason":          row.Reason,
			"granted_at":      row.GrantedAt,
			"expires_at":      row.ExpiresAt,
			"is_active":       row.IsActive,
			"revoked_at":      nil,
			"revoked_by":      "",
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("authz_repo_grant_failed", create.Error,
			"user_id", record.UserID,
			"resource_type", record.ResourceType,
			"resource_name", record.ResourceName,
		)
	}
	return nil
}

func (r *Repository) RevokeUserPermission(ctx context.Context, input ports.RevokeUserPermissionInput) (bool, error) {
	update := r.db.WithContext(ctx).Model(&userPermissionModel{}).
		Where("user_id = ? AND resource_type = ? AND resource_name = ?", input.UserID, input.ResourceType, input.ResourceName).
		Where("is_active = ?", true).
		Updates(map[string]any{
			"is_active":  false,
			"revoked_at": input.RevokedAt,
			"revoked_by": input.RevokedBy,
		})
	if update.Error != nil {
		return false, r.logError("authz_repo_revoke_failed", update.Error,
			"user_id", input.UserID,
			"resource_type", input.ResourceType,
			"resource_name", input.ResourceName,
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) GetUserPermission(ctx context.Context, userID, resourceType, resourceName string) (entities.UserPermissionRecord, bool, error) {
	var row userPermissionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND resource_type = ? AND resource_name = ?", userID, resourceType, resourceName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserPermissionRecord{}, false, nil
		}
		return entities.UserPermissionRecord{}, false, r.logError("authz_repo_get_user_permission_failed", err,
			"user_id", userID,
			"resource_type", resourceType,
			"resource_name", resourceName,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListUserPermissions(ctx context.Context, userID string) ([]entities.UserPermissionRecord, error) {
	var rows []userPermissionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("authz_repo_list_user_permissions_failed", err, "user_id", userID)
	}
	return toUserPermissionEntities(rows), nil
}

func (r *Repository) ListOrganizationGrantedPermissions(ctx context.Context, organizationID string) ([]entities.UserPermissionRecord, error) {
	var rows []userPermissionModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("granted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("authz_repo_list_org_granted_failed", err, "organization_id", organizationID)
	}
	return toUserPermissionEntities(rows), nil
}

func (r *Repository) UpsertOrganizationPermission(ctx context.Context, permission entities.OrganizationPermission) error {
	row := organizationPermissionFromEntity(permission)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.UpdatedAt
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "resource_type"}, {Name: "resource_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"access_level":  row.AccessLevel,
			"required_plan": row.RequiredPlan,
			"enabled":       row.Enabled,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("authz_repo_upsert_org_permission_failed", create.Error,
			"organization_id", permission.OrganizationID,
			"resource_type", permission.ResourceType,
			"resource_name", permission.ResourceName,
		)
	}
	return nil
}

func (r *Repository) GetOrganizationPermission(ctx context.Context, organizationID, resourceType, resourceName string) (entities.OrganizationPermission, bool, error) {
	var row organizationPermissionModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND resource_type = ? AND resource_name = ?", organizationID, resourceType, resourceName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OrganizationPermission{}, false, nil
		}
		return entities.OrganizationPermission{}, false, r.logError("authz_repo_get_org_permission_failed", err,
			"organization_id", organizationID,
			"resource_type", resourceType,
			"resource_name", resourceName,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListOrganizationPermissions(ctx context.Context, organizationID string) ([]entities.OrganizationPermission, error) {
	var rows []organizationPermissionModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("resource_type ASC, resource_name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("authz_repo_list_org_permissions_failed", err, "organization_id", organizationID)
	}
	items := make([]entities.OrganizationPermission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteOrganizationPermissions(ctx context.Context, organizationID string) (int, error) {
	del := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Delete(&organizationPermissionModel{})
	if del.Error != nil {
		return 0, r.logError("authz_repo_delete_org_permissions_failed", del.Error, "organization_id", organizationID)
	}
	return int(del.RowsAffected), nil
}

func (r *Repository) GetUserInfo(ctx context.Context, userID string) (entities.UserInfo, bool, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserInfo{}, false, nil
		}
		return entities.UserInfo{}, false, r.logError("authz_repo_get_user_failed", err, "user_id", userID)
	}
	user := entities.UserInfo{
		UserID:           row.ID,
		SubscriptionTier: entities.SubscriptionTier(row.SubscriptionTier),
		IsActive:         row.IsActive,
	}
	if row.OrganizationID != nil {
		user.OrganizationID = *row.OrganizationID
	}
	return user, true, nil
}

func (r *Repository) GetOrganizationInfo(ctx context.Context, organizationID string) (entities.OrganizationInfo, bool, error) {
	var row organizationModel
	err := r.db.WithContext(ctx).Where("id = ?", organizationID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OrganizationInfo{}, false, nil
		}
		return entities.OrganizationInfo{}, false, r.logError("authz_repo_get_org_failed", err, "organization_id", organizationID)
	}
	return entities.OrganizationInfo{
		OrganizationID: row.ID,
		Plan:           row.Plan,
		IsActive:       row.IsActive,
	}, true, nil
}

func (r *Repository) IsOrganizationMember(ctx context.Context, organizationID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&organizationMemberModel{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("authz_repo_membership_check_failed", err,
			"organization_id", organizationID,
			"user_id", userID,
		)
	}
	return count > 0, nil
}

func (r *Repository) GetUserPermissionSummary(ctx context.Context, userID string) (entities.PermissionSummary, error) {
	records, err := r.ListUserPermissions(ctx, userID)
	if err != nil {
		return entities.PermissionSummary{}, err
	}
	summary := entities.PermissionSummary{
		UserID:      userID,
		Records:     records,
		GeneratedAt: time.Now().UTC(),
	}
	if user, found, err := r.GetUserInfo(ctx, userID); err == nil && found {
		summary.SubscriptionTier = user.SubscriptionTier
		summary.OrganizationID = user.OrganizationID
	}
	return summary, nil
}

func (r *Repository) LogPermissionAction(ctx context.Context, entry entities.AuditLogEntry) error {
	if strings.TrimSpace(entry.AuditID) == "" {
		entry.AuditID = uuid.NewString()
	}
	row := auditLogModel{
		ID:           entry.AuditID,
		ActorID:      entry.ActorID,
		UserID:       entry.UserID,
		ResourceType: entry.ResourceType,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		OldLevel:     entry.OldLevel,
		NewLevel:     entry.NewLevel,
		Success:      entry.Success,
		ErrorText:    entry.ErrorText,
		CreatedAt:    entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("authz_repo_audit_write_failed", err,
			"user_id", entry.UserID,
			"action", entry.Action,
		)
	}
	return nil
}

func (r *Repository) GetServiceStatistics(ctx context.Context) (entities.ServiceStatistics, error) {
	stats := entities.ServiceStatistics{CollectedAt: time.Now().UTC()}
	counts := []struct {
		target *int
		query  *gorm.DB
		event  string
	}{
		{&stats.ResourcePermissions, r.db.WithContext(ctx).Model(&resourcePermissionModel{}), "authz_repo_stats_resources_failed"},
		{&stats.ActiveUserPermissions, r.db.WithContext(ctx).Model(&userPermissionModel{}).Where("is_active = ?", true), "authz_repo_stats_active_failed"},
		{&stats.RevokedUserPermissions, r.db.WithContext(ctx).Model(&userPermissionModel{}).Where("is_active = ?", false), "authz_repo_stats_revoked_failed"},
		{&stats.OrganizationPermissions, r.db.WithContext(ctx).Model(&organizationPermissionModel{}), "authz_repo_stats_org_failed"},
		{&stats.AuditLogEntries, r.db.WithContext(ctx).Model(&auditLogModel{}), "authz_repo_stats_audit_failed"},
	}
	for _, c := range counts {
		var count int64
		if err := c.query.Count(&count).Error; err != nil {
			return entities.ServiceStatistics{}, r.logError(c.event, err)
		}
		*c.target = int(count)
	}
	return stats, nil
}

func (r *Repository) CleanupExpiredPermissions(ctx context.Context, now time.Time) (int, error) {
	update := r.db.WithContext(ctx).Model(&userPermissionModel{}).
		Where("is_active = ?", true).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Updates(map[string]any{
			"is_active":  false,
			"revoked_at": now,
			"revoked_by": "system",
		})
	if update.Error != nil {
		return 0, r.logError("authz_repo_expiry_cleanup_failed", update.Error)
	}
	return int(update.RowsAffected), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/authorization-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("authorization repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PermissionStore = (*Repository)(nil)
