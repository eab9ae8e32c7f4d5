package app

import (
	"context"
	"errors"
	"fmt"

	"opsdeck/internal/config"
	"opsdeck/internal/repo"
)

// ResolveConfig loads the stored config, seeding the defaults on first use
// so every command sees a validated config.
func ResolveConfig(ctx context.Context, r repo.Repo) (*config.Config, error) {
	cfg, err := r.GetConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	seed := config.Default()
	if err := r.UpsertConfig(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	return seed, nil
}
