package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"orderline/internal/domain"
)

// SQLiteStore keeps the collection in an orders table, one JSON payload
// row per order. SaveAll replaces the whole table inside a transaction,
// preserving the same read-modify-write contract as the file store.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, payload FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		var o domain.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			log.Printf("order row %d is corrupt, skipping: %v", id, err)
			continue
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func (s *SQLiteStore) SaveAll(ctx context.Context, orders []domain.Order) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	for _, o := range orders {
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode order %d: %w", o.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, payload) VALUES (?, ?)`, o.ID, payload); err != nil {
			return fmt.Errorf("insert order %d: %w", o.ID, err)
		}
	}
	return tx.Commit()
}
