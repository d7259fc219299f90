package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"orderline/internal/domain"
)

// FileStore keeps the collection in one JSON file. Writes go through a
// temp file and rename so a crash mid-write leaves the old collection
// intact. A missing or unparseable file reads as an empty collection.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) LoadAll(ctx context.Context) ([]domain.Order, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read orders file: %w", err)
	}
	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		log.Printf("orders file %s is corrupt, treating as empty: %v", s.Path, err)
		return nil, nil
	}
	return orders, nil
}

func (s *FileStore) SaveAll(ctx context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("create temp orders file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write orders file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close orders file: %w", err)
	}
	if err := os.Rename(name, s.Path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace orders file: %w", err)
	}
	return nil
}
