package store

import (
	"context"
	"testing"

	"orderline/internal/db"
	"orderline/internal/domain"
	"orderline/internal/migrate"
)

func TestSQLiteStoreReplacesCollection(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewSQLiteStore(conn)
	ctx := context.Background()

	if err := s.SaveAll(ctx, []domain.Order{
		{ID: 1, Status: domain.StatusEditing, ClientID: "c1"},
		{ID: 2, Status: domain.StatusUnderReview, ClientID: "c2"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a second save fully replaces the first
	if err := s.SaveAll(ctx, []domain.Order{
		{ID: 2, Status: domain.StatusInProgress, ClientID: "c2", ExecutorID: "e1"},
	}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	orders, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != 2 || orders[0].Status != domain.StatusInProgress {
		t.Fatalf("collection not replaced: %+v", orders)
	}
}
