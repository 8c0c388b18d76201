package memory

import (
	"context"
	"testing"
	"time"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
	"aegis/contexts/identity-access/authorization-service/ports"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func seedRecord(t *testing.T, store *Store, record entities.UserPermissionRecord) {
	t.Helper()
	if record.GrantedAt.IsZero() {
		record.GrantedAt = testNow
	}
	if err := store.GrantUserPermission(context.Background(), record); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
}

func TestGrantUpsertsByResourceKey(t *testing.T) {
	store := NewStore()
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		IsActive:     true,
	})
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelAdmin,
		Source:       entities.SourceSystemDefault,
		IsActive:     true,
	})

	records, err := store.ListUserPermissions(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("upsert must keep one record per key, got %d", len(records))
	}
	if records[0].AccessLevel != entities.AccessLevelAdmin || records[0].Source != entities.SourceSystemDefault {
		t.Fatalf("last write must win, got %+v", records[0])
	}
}

func TestRevokeDeactivatesWithoutDeleting(t *testing.T) {
	store := NewStore()
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		IsActive:     true,
	})

	revoked, err := store.RevokeUserPermission(context.Background(), ports.RevokeUserPermissionInput{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		RevokedBy:    "admin_1",
		RevokedAt:    testNow,
	})
	if err != nil || !revoked {
		t.Fatalf("revoke failed: revoked=%v err=%v", revoked, err)
	}

	record, found, _ := store.GetUserPermission(context.Background(), "user_1", "tool", "reports")
	if !found {
		t.Fatal("revoked record must remain readable")
	}
	if record.IsActive || record.RevokedAt == nil || record.RevokedBy != "admin_1" {
		t.Fatalf("record must be deactivated in place, got %+v", record)
	}

	// A second revoke on the now-inactive record reports no-op.
	revoked, err = store.RevokeUserPermission(context.Background(), ports.RevokeUserPermissionInput{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		RevokedBy:    "admin_1",
		RevokedAt:    testNow,
	})
	if err != nil || revoked {
		t.Fatalf("repeat revoke must be a no-op, got revoked=%v err=%v", revoked, err)
	}
}

func TestCleanupExpiredPermissions(t *testing.T) {
	store := NewStore()
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		ExpiresAt:    &past,
		IsActive:     true,
	})
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "exports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		ExpiresAt:    &future,
		IsActive:     true,
	})

	cleaned, err := store.CleanupExpiredPermissions(context.Background(), testNow)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if cleaned != 1 {
		t.Fatalf("expected 1 cleaned record, got %d", cleaned)
	}

	expired, _, _ := store.GetUserPermission(context.Background(), "user_1", "tool", "reports")
	if expired.IsActive || expired.RevokedBy != "system" {
		t.Fatalf("expired record must be system-revoked, got %+v", expired)
	}
	live, _, _ := store.GetUserPermission(context.Background(), "user_1", "tool", "exports")
	if !live.IsActive {
		t.Fatal("unexpired record must stay active")
	}

	// Cleanup is idempotent.
	cleaned, err = store.CleanupExpiredPermissions(context.Background(), testNow)
	if err != nil || cleaned != 0 {
		t.Fatalf("repeat cleanup must find nothing, got cleaned=%d err=%v", cleaned, err)
	}
}

func TestOrganizationPermissionLifecycle(t *testing.T) {
	store := NewStore()
	for _, name := range []string{"reports", "exports"} {
		if err := store.UpsertOrganizationPermission(context.Background(), entities.OrganizationPermission{
			OrganizationID: "org_1",
			ResourceType:   "tool",
			ResourceName:   name,
			AccessLevel:    entities.AccessLevelReadWrite,
			Enabled:        true,
		}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	permissions, err := store.ListOrganizationPermissions(context.Background(), "org_1")
	if err != nil || len(permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d err=%v", len(permissions), err)
	}

	deleted, err := store.DeleteOrganizationPermissions(context.Background(), "org_1")
	if err != nil || deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d err=%v", deleted, err)
	}
	permissions, _ = store.ListOrganizationPermissions(context.Background(), "org_1")
	if len(permissions) != 0 {
		t.Fatalf("permissions must be gone, got %d", len(permissions))
	}
}

func TestGetServiceStatistics(t *testing.T) {
	store := NewStore()
	if err := store.CreateResourcePermission(context.Background(), entities.ResourcePermission{
		ResourceType: "tool",
		ResourceName: "reports",
		RequiredTier: entities.TierPro,
		AccessLevel:  entities.AccessLevelReadWrite,
		Enabled:      true,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		IsActive:     true,
	})
	seedRecord(t, store, entities.UserPermissionRecord{
		UserID:       "user_2",
		ResourceType: "tool",
		ResourceName: "reports",
		AccessLevel:  entities.AccessLevelReadOnly,
		Source:       entities.SourceAdminGrant,
		IsActive:     false,
	})
	if err := store.LogPermissionAction(context.Background(), entities.AuditLogEntry{
		UserID: "user_1",
		Action: "grant",
	}); err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	stats, err := store.GetServiceStatistics(context.Background())
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.ResourcePermissions != 1 || stats.ActiveUserPermissions != 1 ||
		stats.RevokedUserPermissions != 1 || stats.AuditLogEntries != 1 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func TestDedupStoreReservations(t *testing.T) {
	dedup := NewDedupStore(2)
	dedup.Clock = fixedClock{t: testNow}
	expiry := testNow.Add(time.Hour)

	already, err := dedup.ReserveEvent(context.Background(), "evt_1", "hash_1", expiry)
	if err != nil || already {
		t.Fatalf("first reservation must succeed, got already=%v err=%v", already, err)
	}
	already, err = dedup.ReserveEvent(context.Background(), "evt_1", "hash_1", expiry)
	if err != nil || !already {
		t.Fatalf("duplicate must be reported, got already=%v err=%v", already, err)
	}

	// Capacity 2: reserving two more evicts evt_1, so it becomes fresh again.
	if _, err := dedup.ReserveEvent(context.Background(), "evt_2", "hash_2", expiry); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := dedup.ReserveEvent(context.Background(), "evt_3", "hash_3", expiry); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	already, err = dedup.ReserveEvent(context.Background(), "evt_1", "hash_1", expiry)
	if err != nil || already {
		t.Fatalf("evicted event must be reservable again, got already=%v err=%v", already, err)
	}
}

func TestDedupStoreExpiresReservationsAgainstInjectedClock(t *testing.T) {
	dedup := NewDedupStore(8)
	dedup.Clock = fixedClock{t: testNow}

	already, err := dedup.ReserveEvent(context.Background(), "evt_1", "hash_1", testNow.Add(time.Hour))
	if err != nil || already {
		t.Fatalf("first reservation must succeed, got already=%v err=%v", already, err)
	}

	// Advance the clock past the reservation's expiry; the event becomes
	// reservable again.
	dedup.Clock = fixedClock{t: testNow.Add(2 * time.Hour)}
	already, err = dedup.ReserveEvent(context.Background(), "evt_1", "hash_1", testNow.Add(3*time.Hour))
	if err != nil || already {
		t.Fatalf("expired reservation must be reservable again, got already=%v err=%v", already, err)
	}
}
