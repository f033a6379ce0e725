package repository

import (
	"context"
	"testing"

	"call-insights/entities"
)

func TestMemoryRepo_DeleteTenantCascade(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	keep := &entities.Tenant{Name: "keep", APIKey: "k-1"}
	drop := &entities.Tenant{Name: "drop", APIKey: "k-2"}
	for _, tenant := range []*entities.Tenant{keep, drop} {
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			t.Fatalf("seed tenant: %v", err)
		}
	}

	keepCall := &entities.CallRecord{TenantID: keep.ID, CallID: "keep-1"}
	dropCall := &entities.CallRecord{TenantID: drop.ID, CallID: "drop-1"}
	for _, record := range []*entities.CallRecord{keepCall, dropCall} {
		if err := repo.CreateCallRecord(ctx, record); err != nil {
			t.Fatalf("seed record: %v", err)
		}
		if err := repo.SaveInsightMarkProcessed(ctx, &entities.CallInsight{CallRecordID: record.ID}); err != nil {
			t.Fatalf("seed insight: %v", err)
		}
	}

	if err := repo.DeleteTenantCascade(ctx, drop.ID); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := repo.FindTenantByID(ctx, drop.ID); err == nil {
		t.Fatalf("tenant must be gone")
	}
	if _, err := repo.FindCallByID(ctx, dropCall.ID); err == nil {
		t.Fatalf("tenant's call records must be gone")
	}
	if _, err := repo.FindInsightByCallRecordID(ctx, dropCall.ID); err == nil {
		t.Fatalf("tenant's insights must be gone")
	}

	// The other tenant's data survives untouched.
	if _, err := repo.FindCallByID(ctx, keepCall.ID); err != nil {
		t.Fatalf("unrelated call vanished: %v", err)
	}
	if _, err := repo.FindInsightByCallRecordID(ctx, keepCall.ID); err != nil {
		t.Fatalf("unrelated insight vanished: %v", err)
	}
}

func TestMemoryRepo_SaveInsightRejectsDuplicates(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	tenant := &entities.Tenant{Name: "acme", APIKey: "k-1"}
	if err := repo.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("seed: %v", err)
	}
	record := &entities.CallRecord{TenantID: tenant.ID, CallID: "c-1"}
	if err := repo.CreateCallRecord(ctx, record); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := repo.SaveInsightMarkProcessed(ctx, &entities.CallInsight{CallRecordID: record.ID}); err != nil {
		t.Fatalf("first insight: %v", err)
	}
	if err := repo.SaveInsightMarkProcessed(ctx, &entities.CallInsight{CallRecordID: record.ID}); err == nil {
		t.Fatalf("second insight for the same record must be rejected")
	}
}

func TestMemoryRepo_ListPendingCallIDs(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	tenant := &entities.Tenant{Name: "acme", APIKey: "k-1"}
	if err := repo.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pending := &entities.CallRecord{TenantID: tenant.ID, CallID: "p-1"}
	done := &entities.CallRecord{TenantID: tenant.ID, CallID: "d-1", IsProcessed: true}
	for _, record := range []*entities.CallRecord{pending, done} {
		if err := repo.CreateCallRecord(ctx, record); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	ids, err := repo.ListPendingCallIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ids) != 1 || ids[0] != pending.ID {
		t.Fatalf("pending ids = %v, want [%d]", ids, pending.ID)
	}
}
