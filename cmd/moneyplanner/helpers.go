package main

import (
	"context"
	"fmt"

	"github.com/na5h13/MoneyPlanner-sub000/internal/config"
	"github.com/na5h13/MoneyPlanner-sub000/internal/service"
	"github.com/na5h13/MoneyPlanner-sub000/internal/storage"
)

// initStorage loads the configuration, opens the configured database, and
// brings the schema current.
func initStorage(ctx context.Context) (service.Storage, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, cfg, nil
}

// formatAmount renders integer minor units as a decimal string. Display
// only; all arithmetic stays in minor units.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
