package engine

import (
	"database/sql"
	"time"

	"opsdeck/internal/analysis"
	"opsdeck/internal/config"
	"opsdeck/internal/events"
	"opsdeck/internal/repo"
)

// Engine owns all domain operations. Every mutation runs in one SQLite
// transaction together with its event-log entry.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Analysis *analysis.Client
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	e := Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
	if cfg != nil {
		e.Analysis = analysis.New(cfg.Analysis)
	}
	return e
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}
