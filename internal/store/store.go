// Package store persists the order collection as a whole. Every write
// replaces the entire collection; there are no partial updates, which
// keeps the consistency model trivially simple at the cost of
// last-write-wins between concurrent processes.
package store

import (
	"context"

	"orderline/internal/domain"
)

// Store reads and replaces the full order collection.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Order, error)
	SaveAll(ctx context.Context, orders []domain.Order) error
}
