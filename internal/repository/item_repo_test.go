package repository_test

import (
	"context"
	"testing"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

func key(p, e string) domain.Item {
	return domain.Item{Key: domain.ItemKey{ProductID: p, ExternalID: e}, Name: p + e}
}

func TestMockItemRepository_PersistSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockItemRepository()
	repo.Seed("s1", key("p1", "e1"), key("p2", "e2"), key("p3", ""))

	before, _ := repo.GetStored(ctx, "s1")
	keptID := before[0].ID

	// p1 keeps its product id, p2 only keeps its external id, p3 disappears.
	next := []domain.Item{key("p1", "eX"), key("pY", "e2"), key("p4", "e4")}
	if err := repo.PersistSnapshot(ctx, "s1", next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := repo.GetStored(ctx, "s1")
	if len(after) != 3 {
		t.Fatalf("expected 3 stored items, got %d: %+v", len(after), after)
	}
	if after[0].ID != keptID {
		t.Fatal("expected unchanged item to keep its row")
	}
	if domain.ContainsMatch(after, domain.ItemKey{ProductID: "p3"}) {
		t.Fatal("expected p3 to be removed")
	}
	if !domain.ContainsMatch(after, domain.ItemKey{ProductID: "p4"}) {
		t.Fatal("expected p4 to be inserted")
	}
}

func TestMockItemRepository_PersistSnapshotRemovesByID(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockItemRepository()
	// Two rows that share no key with anything, including each other.
	repo.Seed("s1", key("p1", ""), key("", ""), key("", ""))

	if err := repo.PersistSnapshot(ctx, "s1", []domain.Item{key("p1", "")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := repo.GetStored(ctx, "s1")
	if len(after) != 1 || after[0].Key.ProductID != "p1" {
		t.Fatalf("expected only p1 to remain, got %+v", after)
	}
}
