package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"orderline/internal/domain"
)

// Writer appends to the events table. The log is append-only and ordered
// by the autoincrement id, which the webhook pump uses as its cursor.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, evtType string, orderID int64, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx,
		`INSERT INTO events(ts,type,order_id,actor_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, orderID, actorID, string(data))
	return err
}

// Reader walks the log by id cursor.
type Reader struct {
	DB *sql.DB
}

// After returns up to limit events with id greater than cursor, oldest first.
func (r Reader) After(ctx context.Context, cursor int64, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, ts, type, order_id, actor_id, payload_json FROM events WHERE id > ? ORDER BY id LIMIT ?`,
		cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.OrderID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Tail returns the most recent limit events, oldest first.
func (r Reader) Tail(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	var max int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&max)
	if err != nil {
		return nil, err
	}
	cursor := max - int64(limit)
	if cursor < 0 {
		cursor = 0
	}
	return r.After(ctx, cursor, limit)
}
