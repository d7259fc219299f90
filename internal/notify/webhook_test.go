package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"orderline/internal/config"
	"orderline/internal/db"
	"orderline/internal/events"
	"orderline/internal/migrate"
	"orderline/internal/repo"
)

type receivedEvent struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
}

func newPumpEnv(t *testing.T) (events.Writer, events.Reader, repo.Repo) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return events.Writer{DB: conn}, events.Reader{DB: conn}, repo.Repo{DB: conn}
}

func TestWebhookPumpDeliversAndAdvancesCursor(t *testing.T) {
	w, rd, rp := newPumpEnv(t)
	ctx := context.Background()

	var mu sync.Mutex
	var got []receivedEvent
	sink := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Orderline-Secret") != "s3cret" {
			rw.WriteHeader(http.StatusForbidden)
			return
		}
		var evt receivedEvent
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		got = append(got, evt)
		mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	if err := w.Append(ctx, "order.confirmed", 1, "client-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(ctx, "offer.submitted", 1, "exec-1", events.EventPayload{"price": 1000}); err != nil {
		t.Fatal(err)
	}

	hook := config.Webhook{ID: "wh1", URL: sink.URL, Secret: "s3cret"}
	pump := NewWebhookPump(rd, rp, []config.Webhook{hook})
	pump.DispatchAll(ctx)

	mu.Lock()
	n := len(got)
	mu.Unlock()
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	// a second pass must not replay
	pump.DispatchAll(ctx)
	mu.Lock()
	n = len(got)
	mu.Unlock()
	if n != 2 {
		t.Fatalf("events replayed, got %d", n)
	}

	cursor, err := rp.WebhookCursor(ctx, "wh1")
	if err != nil || cursor != 2 {
		t.Fatalf("cursor %d %v", cursor, err)
	}
}

func TestWebhookPumpFiltersEvents(t *testing.T) {
	w, rd, rp := newPumpEnv(t)
	ctx := context.Background()

	var mu sync.Mutex
	var got []receivedEvent
	sink := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var evt receivedEvent
		json.NewDecoder(r.Body).Decode(&evt)
		mu.Lock()
		got = append(got, evt)
		mu.Unlock()
	}))
	defer sink.Close()

	if err := w.Append(ctx, "order.confirmed", 1, "client-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(ctx, "payment.accepted", 1, "admin", nil); err != nil {
		t.Fatal(err)
	}

	hook := config.Webhook{ID: "wh1", URL: sink.URL, Events: []string{"payment.accepted"}}
	pump := NewWebhookPump(rd, rp, []config.Webhook{hook})
	pump.DispatchAll(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Type != "payment.accepted" {
		t.Fatalf("filter failed: %+v", got)
	}

	// cursor still covers the skipped event
	cursor, err := rp.WebhookCursor(ctx, "wh1")
	if err != nil || cursor != 2 {
		t.Fatalf("cursor %d %v", cursor, err)
	}
}
