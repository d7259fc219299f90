// Package app assembles a ready-to-use engine from a workspace: config
// file, sqlite database with migrations applied, the configured order
// store backend, and the mirror, if any.
package app

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"orderline/internal/config"
	"orderline/internal/db"
	"orderline/internal/engine"
	"orderline/internal/migrate"
	"orderline/internal/mirror"
	"orderline/internal/store"
)

// App is one running orderline instance over one workspace.
type App struct {
	DB     *sql.DB
	Config *config.Config
	Engine *engine.Engine
}

// Open loads config, opens and migrates the database, and wires the
// engine with the configured store and mirror backends.
func Open(workspace string) (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	e := engine.New(conn, openStore(workspace, cfg, conn), cfg)
	if cfg.Mirror.Path != "" {
		e.Mirror = mirror.NewCSVMirror(resolvePath(workspace, cfg.Mirror.Path))
	}
	return &App{DB: conn, Config: cfg, Engine: e}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

func openStore(workspace string, cfg *config.Config, conn *sql.DB) store.Store {
	if cfg.Orders.Backend == "sqlite" {
		return store.NewSQLiteStore(conn)
	}
	path := cfg.Orders.File
	if path == "" {
		path = "orders.json"
	}
	return store.NewFileStore(resolvePath(workspace, path))
}

func resolvePath(workspace, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, path)
}
