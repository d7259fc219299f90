package repo

import (
	"context"
	"database/sql"
	"errors"

	"orderline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO profiles(client_id,name,grp,university,gradebook,phone) VALUES (?,?,?,?,?,?)
		ON CONFLICT(client_id) DO UPDATE SET name=excluded.name, grp=excluded.grp, university=excluded.university, gradebook=excluded.gradebook, phone=excluded.phone`,
		p.ClientID, p.Name, p.Group, p.University, p.Gradebook, p.Phone)
	return err
}

func (r Repo) GetProfile(ctx context.Context, clientID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.DB.QueryRowContext(ctx,
		`SELECT client_id,name,grp,university,gradebook,phone FROM profiles WHERE client_id=?`, clientID).
		Scan(&p.ClientID, &p.Name, &p.Group, &p.University, &p.Gradebook, &p.Phone)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT client_id,name,grp,university,gradebook,phone FROM profiles ORDER BY client_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ClientID, &p.Name, &p.Group, &p.University, &p.Gradebook, &p.Phone); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) AddExecutor(ctx context.Context, e domain.Executor) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO executors(id,name) VALUES (?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name`, e.ID, e.Name)
	return err
}

func (r Repo) RemoveExecutor(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM executors WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetExecutor(ctx context.Context, id string) (domain.Executor, error) {
	var e domain.Executor
	err := r.DB.QueryRowContext(ctx, `SELECT id,name FROM executors WHERE id=?`, id).Scan(&e.ID, &e.Name)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

func (r Repo) ListExecutors(ctx context.Context) ([]domain.Executor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name FROM executors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Executor
	for rows.Next() {
		var e domain.Executor
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// WebhookCursor returns the delivery cursor for a webhook, zero if unseen.
func (r Repo) WebhookCursor(ctx context.Context, webhookID string) (int64, error) {
	var last int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT last_event_id FROM webhook_cursors WHERE webhook_id=?`, webhookID).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return last, err
}

func (r Repo) SetWebhookCursor(ctx context.Context, webhookID string, lastEventID int64) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO webhook_cursors(webhook_id,last_event_id) VALUES (?,?)
		ON CONFLICT(webhook_id) DO UPDATE SET last_event_id=excluded.last_event_id`, webhookID, lastEventID)
	return err
}
