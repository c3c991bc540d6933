package main

import (
	"context"

	"github.com/desertthunder/listx/internal/repositories"
	"github.com/urfave/cli/v3"
)

func (r *Runner) matches() (*repositories.MatchRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewMatchRepository(db), nil
}

// CacheStats prints how many candidate resolutions are cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.matches()
	if err != nil {
		return err
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	state := "disabled"
	if r.cfg().Import.UseMatchCache {
		state = "enabled"
	}
	return r.writePlain("%d cached matches (cache %s)\n", count, state)
}

// CacheClear removes every cached resolution.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.matches()
	if err != nil {
		return err
	}

	n, err := repo.Clear(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("match cache cleared", "removed", n)
	return r.writePlain("✓ Removed %d cached matches\n", n)
}
