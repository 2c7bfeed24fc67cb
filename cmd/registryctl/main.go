package main

import (
	"context"
	"fmt"
	"os"

	"registry-backend/internal/bootstrap"
	"registry-backend/internal/files"
	"registry-backend/internal/registry"
	"registry-backend/internal/shared/config"
	"registry-backend/internal/shared/storage/db"
)

func main() {
	root := newRootCommand(loadEnv)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv connects to the configured database and blob store.
func loadEnv(ctx context.Context) (*toolEnv, error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return nil, err
	}
	store, err := bootstrap.BuildStore(ctx, cfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	filesRepo := &files.PGRepo{DB: sqlDB}
	return &toolEnv{
		Allocator: registry.NewAllocator(&registry.PGCounterStore{DB: sqlDB}, filesRepo),
		Files:     filesRepo,
		Store:     store,
		Close:     sqlDB.Close,
	}, nil
}
