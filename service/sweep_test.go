package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"call-insights/entities"
	"call-insights/repository"
)

func TestSweepPending_ReenqueuesOnlyUnprocessed(t *testing.T) {
	repo := repository.NewMemoryRepo()
	tenant := seedTenant(t, repo, "acme", "key-1")
	ctx := context.Background()

	var pendingIDs []uint
	for i := 0; i < 3; i++ {
		record := &entities.CallRecord{TenantID: tenant.ID, CallID: fmt.Sprintf("p-%d", i)}
		if err := repo.CreateCallRecord(ctx, record); err != nil {
			t.Fatalf("seed: %v", err)
		}
		pendingIDs = append(pendingIDs, record.ID)
	}
	done := &entities.CallRecord{TenantID: tenant.ID, CallID: "done", IsProcessed: true}
	if err := repo.CreateCallRecord(ctx, done); err != nil {
		t.Fatalf("seed: %v", err)
	}

	queue := &fakePublisher{}
	count, err := NewSweeper(repo, queue).SweepPending(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if len(queue.callIDs) != 3 {
		t.Fatalf("enqueued %d jobs, want 3", len(queue.callIDs))
	}
	for i, id := range pendingIDs {
		if queue.callIDs[i] != id {
			t.Fatalf("enqueued ids %v, want %v", queue.callIDs, pendingIDs)
		}
	}
}

func TestSweepPending_PublishFailuresAreSkipped(t *testing.T) {
	repo := repository.NewMemoryRepo()
	tenant := seedTenant(t, repo, "acme", "key-1")
	ctx := context.Background()

	record := &entities.CallRecord{TenantID: tenant.ID, CallID: "p-0"}
	if err := repo.CreateCallRecord(ctx, record); err != nil {
		t.Fatalf("seed: %v", err)
	}

	queue := &fakePublisher{publishErr: errors.New("broker down")}
	count, err := NewSweeper(repo, queue).SweepPending(ctx)
	if err != nil {
		t.Fatalf("publish failure must not fail the sweep, got %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestSweepPending_EmptyDatabase(t *testing.T) {
	repo := repository.NewMemoryRepo()
	count, err := NewSweeper(repo, &fakePublisher{}).SweepPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
