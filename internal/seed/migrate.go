package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kiranshivaraju/hiretrack/internal/store"
)

// Step is one data migration. Steps run in Version order and each runs at most
// once per store, tracked by the store's seed-version marker.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, s store.Store) error
}

// Steps returns the data migrations for a store seeded by g.
func Steps(g *Generator) []Step {
	return []Step{
		{
			Version: 1,
			Name:    "initial dataset",
			Apply: func(ctx context.Context, s store.Store) error {
				return s.BulkInsert(ctx, g.Generate())
			},
		},
	}
}

// Migrate applies every step newer than the store's marker and advances the
// marker after each one. It returns how many steps ran.
func Migrate(ctx context.Context, s store.Store, steps []Step) (int, error) {
	current, err := s.SeedVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read seed version: %w", err)
	}

	ordered := append([]Step(nil), steps...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	applied := 0
	for _, step := range ordered {
		if step.Version <= current {
			continue
		}
		slog.Info("applying seed step", "version", step.Version, "name", step.Name)
		if err := step.Apply(ctx, s); err != nil {
			return applied, fmt.Errorf("seed step %d (%s): %w", step.Version, step.Name, err)
		}
		if err := s.SetSeedVersion(ctx, step.Version); err != nil {
			return applied, fmt.Errorf("record seed version %d: %w", step.Version, err)
		}
		current = step.Version
		applied++
	}
	return applied, nil
}
