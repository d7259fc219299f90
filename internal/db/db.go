// Package db opens the per-workspace SQLite database. Everything durable
// except the order collection file lives here, under .orderline/.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir = ".orderline"
	databaseFile = "orderline.db"
)

type Config struct {
	Workspace string
}

// EnsureWorkspace creates the .orderline directory under the workspace
// root and returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	dir := filepath.Join(root(workspace), workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Open opens the workspace database, creating it on first use, with
// foreign keys enabled.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", Path(cfg.Workspace))
	return sql.Open("sqlite", dsn)
}

// Path reports where the database file lives for a workspace.
func Path(workspace string) string {
	return filepath.Join(root(workspace), workspaceDir, databaseFile)
}

func root(workspace string) string {
	if workspace == "" {
		return "."
	}
	return workspace
}
