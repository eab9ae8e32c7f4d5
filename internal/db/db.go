package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const defaultDBName = "opsdeck.db"

type Config struct {
	// Workspace holds the on-disk state directory. Empty means a purely
	// in-memory session that is lost on process exit.
	Workspace string
}

func dbPath(workspace string) string {
	return filepath.Join(workspace, ".opsdeck", defaultDBName)
}

// EnsureWorkspace creates the workspace directory if missing. A no-op for
// in-memory sessions.
func EnsureWorkspace(workspace string) (string, error) {
	if workspace == "" {
		return "", nil
	}
	path := filepath.Join(workspace, ".opsdeck")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// Open opens the SQLite database with foreign keys on. Without a workspace
// the database lives in process memory only.
func Open(cfg Config) (*sql.DB, error) {
	dsn := "file:opsdeck?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	if cfg.Workspace != "" {
		if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", dbPath(cfg.Workspace))
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Path returns the db path for the workspace, empty for in-memory sessions.
func Path(workspace string) string {
	if workspace == "" {
		return ""
	}
	return dbPath(workspace)
}
