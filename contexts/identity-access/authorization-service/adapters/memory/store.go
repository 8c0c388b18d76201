package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
	"aegis/contexts/identity-access/authorization-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the permission store port.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	resources map[string]entities.ResourcePermission
	userPerms map[string]entities.UserPermissionRecord
	orgPerms  map[string]entities.OrganizationPermission

	users   map[string]entities.UserInfo
	orgs    map[string]entities.OrganizationInfo
	members map[string]map[string]bool

	audit []entities.AuditLogEntry
}

func NewStore() *Store {
	return &Store{
		resources: make(map[string]entities.ResourcePermission),
		userPerms: make(map[string]entities.UserPermissionRecord),
		orgPerms:  make(map[string]entities.OrganizationPermission),
		users:     make(map[string]entities.UserInfo),
		orgs:      make(map[string]entities.OrganizationInfo),
		members:   make(map[string]map[string]bool),
	}
}

func resourceKey(resourceType, resourceName string) string {
	return resourceType + "|" + resourceName
}

func userPermissionKey(userID, resourceType, resourceName string) string {
	return userID + "|" + resourceType + "|" + resourceName
}

func orgPermissionKey(organizationID, resourceType, resourceName string) string {
	return organizationID + "|" + resourceType + "|" + resourceName
}

// SeedUser registers an account snapshot for lookups.
func (s *Store) SeedUser(user entities.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
}

// SeedOrganization registers an organization snapshot for lookups.
func (s *Store) SeedOrganization(org entities.OrganizationInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.OrganizationID] = org
}

// SeedMembership records organization membership for lookups.
func (s *Store) SeedMembership(organizationID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[organizationID] == nil {
		s.members[organizationID] = make(map[string]bool)
	}
	s.members[organizationID][userID] = true
}

// AuditEntries returns a copy of the audit log, optionally filtered by user.
func (s *Store) AuditEntries(userID string) []entities.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]entities.AuditLogEntry, 0, len(s.audit))
	for _, entry := range s.audit {
		if userID == "" || entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (s *Store) CreateResourcePermission(_ context.Context, permission entities.ResourcePermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[resourceKey(permission.ResourceType, permission.ResourceName)] = permission
	return nil
}

func (s *Store) UpdateResourcePermission(_ context.Context, permission entities.ResourcePermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resourceKey(permission.ResourceType, permission.ResourceName)
	if existing, ok := s.resources[key]; ok {
		permission.CreatedAt = existing.CreatedAt
	}
	s.resources[key] = permission
	return nil
}

func (s *Store) GetResourcePermission(_ context.Context, resourceType, resourceName string) (entities.ResourcePermission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	permission, ok := s.resources[resourceKey(resourceType, resourceName)]
	return permission, ok, nil
}

func (s *Store) ListResourcePermissions(_ context.Context) ([]entities.ResourcePermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.ResourcePermission, 0, len(s.resources))
	for _, permission := range s.resources {
		items = append(items, permission)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ResourceType != items[j].ResourceType {
			return items[i].ResourceType < items[j].ResourceType
		}
		return items[i].ResourceName < items[j].ResourceName
	})
	return items, nil
}

// GrantUserPermission upserts on the record key with last-write-wins
// semantics.
func (s *Store) GrantUserPermission(_ context.Context, record entities.UserPermissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.RecordID == "" {
		record.RecordID = uuid.NewString()
	}
	s.userPerms[userPermissionKey(record.UserID, record.ResourceType, record.ResourceName)] = record
	return nil
}

func (s *Store) RevokeUserPermission(_ context.Context, input ports.RevokeUserPermissionInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userPermissionKey(input.UserID, input.ResourceType, input.ResourceName)
	record, ok := s.userPerms[key]
	if !ok || !record.IsActive {
		return false, nil
	}
	record.IsActive = false
	revokedAt := input.RevokedAt.UTC()
	record.RevokedAt = &revokedAt
	record.RevokedBy = input.RevokedBy
	s.userPerms[key] = record
	return true, nil
}

func (s *Store) GetUserPermission(_ context.Context, userID, resourceType, resourceName string) (entities.UserPermissionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.userPerms[userPermissionKey(userID, resourceType, resourceName)]
	return record, ok, nil
}

func (s *Store) ListUserPermissions(_ context.Context, userID string) ([]entities.UserPermissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.UserPermissionRecord, 0)
	for _, record := range s.userPerms {
		if record.UserID == userID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GrantedAt.After(items[j].GrantedAt)
	})
	return items, nil
}

func (s *Store) ListOrganizationGrantedPermissions(_ context.Context, organizationID string) ([]entities.UserPermissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.UserPermissionRecord, 0)
	for _, record := range s.userPerms {
		if record.OrganizationID == organizationID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GrantedAt.After(items[j].GrantedAt)
	})
	return items, nil
}

func (s *Store) UpsertOrganizationPermission(_ context.Context, permission entities.OrganizationPermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orgPermissionKey(permission.OrganizationID, permission.ResourceType, permission.ResourceName)
	if existing, ok := s.orgPerms[key]; ok {
		permission.CreatedAt = existing.CreatedAt
	} else if permission.CreatedAt.IsZero() {
		permission.CreatedAt = permission.UpdatedAt
	}
	s.orgPerms[key] = permission
	return nil
}

func (s *Store) GetOrganizationPermission(_ context.Context, organizationID, resourceType, resourceName string) (entities.OrganizationPermission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	permission, ok := s.orgPerms[orgPermissionKey(organizationID, resourceType, resourceName)]
	return permission, ok, nil
}

func (s *Store) ListOrganizationPermissions(_ context.Context, organizationID string) ([]entities.OrganizationPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.OrganizationPermission, 0)
	for _, permission := range s.orgPerms {
		if permission.OrganizationID == organizationID {
			items = append(items, permission)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ResourceType != items[j].ResourceType {
			return items[i].ResourceType < items[j].ResourceType
		}
		return items[i].ResourceName < items[j].ResourceName
	})
	return items, nil
}

func (s *Store) DeleteOrganizationPermissions(_ context.Context, organizationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, permission := range s.orgPerms {
		if permission.OrganizationID == organizationID {
			delete(s.orgPerms, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) GetUserInfo(_ context.Context, userID string) (entities.UserInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return user, ok, nil
}

func (s *Store) GetOrganizationInfo(_ context.Context, organizationID string) (entities.OrganizationInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[organizationID]
	return org, ok, nil
}

func (s *Store) IsOrganizationMember(_ context.Context, organizationID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[organizationID][userID], nil
}

func (s *Store) GetUserPermissionSummary(ctx context.Context, userID string) (entities.PermissionSummary, error) {
	records, err := s.ListUserPermissions(ctx, userID)
	if err != nil {
		return entities.PermissionSummary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := entities.PermissionSummary{
		UserID:      userID,
		Records:     records,
		GeneratedAt: time.Now().UTC(),
	}
	if user, ok := s.users[userID]; ok {
		summary.SubscriptionTier = user.SubscriptionTier
		summary.OrganizationID = user.OrganizationID
	}
	return summary, nil
}

func (s *Store) LogPermissionAction(_ context.Context, entry entities.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.AuditID == "" {
		entry.AuditID = uuid.NewString()
	}
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) GetServiceStatistics(_ context.Context) (entities.ServiceStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := entities.ServiceStatistics{
		ResourcePermissions:     len(s.resources),
		OrganizationPermissions: len(s.orgPerms),
		AuditLogEntries:         len(s.audit),
		CollectedAt:             time.Now().UTC(),
	}
	for _, record := range s.userPerms {
		if record.IsActive {
			stats.ActiveUserPermissions++
		} else {
			stats.RevokedUserPermissions++
		}
	}
	return stats, nil
}

func (s *Store) CleanupExpiredPermissions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for key, record := range s.userPerms {
		if !record.IsActive || !record.Expired(now) {
			continue
		}
		record.IsActive = false
		revokedAt := now
		record.RevokedAt = &revokedAt
		record.RevokedBy = "system"
		s.userPerms[key] = record
		expired++
	}
	return expired, nil
}
