package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opsdeck/internal/config"
	"opsdeck/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const configKey = "default"

// NextID allocates the next human-readable id for a prefix, e.g. SOP-001.
// Must run inside the caller's transaction so concurrent allocations from
// the same session never collide.
func (r Repo) NextID(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT next FROM sequences WHERE prefix=?`, prefix).Scan(&n)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("unknown id prefix %s", prefix)
	}
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sequences SET next=next+1 WHERE prefix=?`, prefix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", prefix, n), nil
}

// GetConfig loads the stored config, ErrNotFound when never seeded.
func (r Repo) GetConfig(ctx context.Context) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM configs WHERE key=?`, configKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// UpsertConfig stores the config, replacing any previous revision.
func (r Repo) UpsertConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.DB.ExecContext(ctx, `INSERT INTO configs(key,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(key) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, configKey, string(payload), now, now)
	return err
}

// --- json list column helpers ---

func marshalSteps(steps []domain.SOPStep) (any, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalSteps(raw sql.NullString) ([]domain.SOPStep, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var steps []domain.SOPStep
	if err := json.Unmarshal([]byte(raw.String), &steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return steps, nil
}

func marshalIOs(ios []domain.TaskIO) (any, error) {
	if len(ios) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ios)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalIOs(raw sql.NullString) ([]domain.TaskIO, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var ios []domain.TaskIO
	if err := json.Unmarshal([]byte(raw.String), &ios); err != nil {
		return nil, fmt.Errorf("decode task io: %w", err)
	}
	return ios, nil
}

func marshalStringSlice(in []string) (any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalStringSlice(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return out, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func fromNull(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}
