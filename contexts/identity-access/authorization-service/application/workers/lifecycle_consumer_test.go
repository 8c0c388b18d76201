package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aegis/contexts/identity-access/authorization-service/adapters/memory"
	"aegis/contexts/identity-access/authorization-service/application/commands"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
	"aegis/internal/shared/events"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newConsumer(store *memory.Store) LifecycleConsumer {
	clock := fixedClock{t: testNow}
	dedup := memory.NewDedupStore(16)
	dedup.Clock = clock
	return LifecycleConsumer{
		Store:  store,
		Grant:  commands.GrantPermissionUseCase{Store: store, Clock: clock},
		Revoke: commands.RevokePermissionUseCase{Store: store, Clock: clock},
		Dedup:  dedup,
		Clock:  clock,
	}
}

func grantDirect(t *testing.T, store *memory.Store, userID, resourceType, resourceName string, source entities.PermissionSource, orgID string) {
	t.Helper()
	err := store.GrantUserPermission(context.Background(), entities.UserPermissionRecord{
		RecordID:       userID + "-" + resourceType + "-" + resourceName,
		UserID:         userID,
		ResourceType:   resourceType,
		ResourceName:   resourceName,
		AccessLevel:    entities.AccessLevelReadWrite,
		Source:         source,
		OrganizationID: orgID,
		GrantedBy:      "admin_1",
		GrantedAt:      testNow,
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("seed grant failed: %v", err)
	}
}

func activeRecords(t *testing.T, store *memory.Store, userID string) []entities.UserPermissionRecord {
	t.Helper()
	records, err := store.ListUserPermissions(context.Background(), userID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	active := records[:0:0]
	for _, record := range records {
		if record.IsActive {
			active = append(active, record)
		}
	}
	return active
}

func TestUserDeletedRevokesAllPermissions(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	grantDirect(t, store, "user_1", "tool", "reports", entities.SourceAdminGrant, "")
	grantDirect(t, store, "user_1", "tool", "exports", entities.SourceOrganization, "org_1")
	consumer := newConsumer(store)

	if err := consumer.HandleUserDeleted(context.Background(), "user_1"); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if remaining := activeRecords(t, store, "user_1"); len(remaining) != 0 {
		t.Fatalf("all permissions must be revoked, %d still active", len(remaining))
	}
}

func TestOrganizationDeletedRemovesUnlocksAndGrantedRecords(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	if err := store.UpsertOrganizationPermission(context.Background(), entities.OrganizationPermission{
		OrganizationID: "org_1",
		ResourceType:   "tool",
		ResourceName:   "reports",
		AccessLevel:    entities.AccessLevelReadWrite,
		Enabled:        true,
	}); err != nil {
		t.Fatalf("seed org permission failed: %v", err)
	}
	grantDirect(t, store, "user_1", "tool", "reports", entities.SourceOrganization, "org_1")
	grantDirect(t, store, "user_1", "tool", "exports", entities.SourceAdminGrant, "")
	consumer := newConsumer(store)

	if err := consumer.HandleOrganizationDeleted(context.Background(), "org_1"); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	unlocks, _ := store.ListOrganizationPermissions(context.Background(), "org_1")
	if len(unlocks) != 0 {
		t.Fatalf("org unlocks must be deleted, %d remain", len(unlocks))
	}
	remaining := activeRecords(t, store, "user_1")
	if len(remaining) != 1 || remaining[0].ResourceName != "exports" {
		t.Fatalf("only the admin grant may survive, got %+v", remaining)
	}
}

func TestMemberAddedMirrorsOnlyMissingUnlocks(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	for _, name := range []string{"reports", "exports"} {
		if err := store.UpsertOrganizationPermission(context.Background(), entities.OrganizationPermission{
			OrganizationID: "org_1",
			ResourceType:   "tool",
			ResourceName:   name,
			AccessLevel:    entities.AccessLevelReadWrite,
			Enabled:        true,
		}); err != nil {
			t.Fatalf("seed org permission failed: %v", err)
		}
	}
	// The user already actively holds one of the two keys.
	grantDirect(t, store, "user_1", "tool", "reports", entities.SourceAdminGrant, "")
	consumer := newConsumer(store)

	if err := consumer.HandleMemberAdded(context.Background(), "org_1", "user_1", "admin_1"); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	records := activeRecords(t, store, "user_1")
	if len(records) != 2 {
		t.Fatalf("expected 2 active records, got %d", len(records))
	}
	for _, record := range records {
		switch record.ResourceName {
		case "reports":
			if record.Source != entities.SourceAdminGrant {
				t.Fatalf("held key must not be overwritten, got source %s", record.Source)
			}
		case "exports":
			if record.Source != entities.SourceOrganization || record.OrganizationID != "org_1" {
				t.Fatalf("mirrored record malformed: %+v", record)
			}
		default:
			t.Fatalf("unexpected record %+v", record)
		}
	}
}

func TestMemberAddedSkipsDisabledUnlocks(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	if err := store.UpsertOrganizationPermission(context.Background(), entities.OrganizationPermission{
		OrganizationID: "org_1",
		ResourceType:   "tool",
		ResourceName:   "reports",
		AccessLevel:    entities.AccessLevelReadWrite,
		Enabled:        false,
	}); err != nil {
		t.Fatalf("seed org permission failed: %v", err)
	}
	consumer := newConsumer(store)

	if err := consumer.HandleMemberAdded(context.Background(), "org_1", "user_1", "admin_1"); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if records := activeRecords(t, store, "user_1"); len(records) != 0 {
		t.Fatalf("disabled unlocks must not be mirrored, got %+v", records)
	}
}

func TestMemberRemovedRevokesOrganizationSourcedAcrossOrgs(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	grantDirect(t, store, "user_1", "tool", "reports", entities.SourceOrganization, "org_1")
	grantDirect(t, store, "user_1", "tool", "exports", entities.SourceOrganization, "org_2")
	grantDirect(t, store, "user_1", "tool", "billing", entities.SourceAdminGrant, "")
	consumer := newConsumer(store)

	if err := consumer.HandleMemberRemoved(context.Background(), "org_1", "user_1"); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	remaining := activeRecords(t, store, "user_1")
	if len(remaining) != 1 || remaining[0].Source != entities.SourceAdminGrant {
		t.Fatalf("every ORGANIZATION-sourced record must go, got %+v", remaining)
	}
}

func TestHandleSuppressesDuplicateEvents(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.UserInfo{UserID: "user_1", SubscriptionTier: entities.TierFree, IsActive: true})
	if err := store.UpsertOrganizationPermission(context.Background(), entities.OrganizationPermission{
		OrganizationID: "org_1",
		ResourceType:   "tool",
		ResourceName:   "reports",
		AccessLevel:    entities.AccessLevelReadWrite,
		Enabled:        true,
	}); err != nil {
		t.Fatalf("seed org permission failed: %v", err)
	}
	consumer := newConsumer(store)

	payload, _ := json.Marshal(map[string]string{"organization_id": "org_1", "user_id": "user_1", "added_by": "admin_1"})
	envelope := events.Envelope{
		EventID:   "evt_1",
		EventType: EventOrgMemberAdded,
		Data:      payload,
	}

	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	// Revoke the mirrored record so a reprocessed duplicate would visibly
	// re-create it.
	if _, err := consumer.Revoke.Execute(context.Background(), commands.RevokePermissionCommand{
		UserID:       "user_1",
		ResourceType: "tool",
		ResourceName: "reports",
		RevokedBy:    "admin_1",
	}); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("duplicate delivery failed: %v", err)
	}

	if records := activeRecords(t, store, "user_1"); len(records) != 0 {
		t.Fatalf("duplicate delivery must be a no-op, got %+v", records)
	}
}

func TestHandleIgnoresUnknownEventType(t *testing.T) {
	store := memory.NewStore()
	consumer := newConsumer(store)

	err := consumer.Handle(context.Background(), events.Envelope{
		EventID:   "evt_2",
		EventType: "user.updated",
		Data:      json.RawMessage(`{"user_id":"user_1"}`),
	})
	if err != nil {
		t.Fatalf("unknown event type must be ignored, got %v", err)
	}
}
