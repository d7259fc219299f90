package mirror

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCSVMirrorAppendUpdateDelete(t *testing.T) {
	m := NewCSVMirror(filepath.Join(t.TempDir(), "sheet.csv"))
	ctx := context.Background()

	max, err := m.MaxOrderID(ctx)
	if err != nil || max != 0 {
		t.Fatalf("empty mirror max: %d %v", max, err)
	}

	if err := m.Append(ctx, Row{OrderID: 7, ClientName: "Ivan", ExecutorID: "e1",
		Subject: "Economics", DueDate: "06.03.2024",
		ExecutorPrice: 1000, FinalPrice: 1200, Profit: 200, Status: "in_progress"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.Append(ctx, Row{OrderID: 9, ClientName: "Olga", Status: "in_progress"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	max, err = m.MaxOrderID(ctx)
	if err != nil || max != 9 {
		t.Fatalf("max after appends: %d %v", max, err)
	}

	if err := m.UpdateStatus(ctx, 7, "completed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	records, err := m.load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0][len(header)-1] != "completed" {
		t.Fatalf("status not updated: %v", records)
	}

	if err := m.Delete(ctx, 9); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, err = m.load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0][0] != "7" {
		t.Fatalf("delete left %v", records)
	}
}

func TestNoopMirror(t *testing.T) {
	var m Noop
	ctx := context.Background()
	if err := m.Append(ctx, Row{OrderID: 1}); err != nil {
		t.Fatal(err)
	}
	if max, err := m.MaxOrderID(ctx); err != nil || max != 0 {
		t.Fatalf("noop max: %d %v", max, err)
	}
}
