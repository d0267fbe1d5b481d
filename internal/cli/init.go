// Package cli provides common initialization shared by the carteira
// binaries in cmd/.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"carteira/internal/config"
	"carteira/internal/log"
	"carteira/internal/storage"
	"carteira/internal/store"
)

// LoadEnvFile loads the .env file for local development. Errors are ignored
// since the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds a component-tagged logger at the configured level and
// installs it as the slog default.
func SetupLogger(component, level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads the environment, the configuration, and a default logger
// for the given component. Exits the process when the configuration is
// invalid.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(component, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSnapshots opens the snapshot repository at dbPath, running migrations,
// and exits the process on failure.
func InitSnapshots(logger *log.Logger, dbPath string) *storage.SnapshotRepository {
	repo, err := storage.NewSnapshotRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open snapshot repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// RestoreStores loads the last state snapshot into fresh in-memory stores.
// A missing snapshot is not an error; the stores start empty.
func RestoreStores(ctx context.Context, logger *log.Logger, repo *storage.SnapshotRepository) *store.Stores {
	stores := store.NewStores()
	state, found, err := repo.Load(ctx)
	if err != nil {
		logger.Error("Failed to load state snapshot", log.FieldError, err)
		os.Exit(1)
	}
	if found {
		stores.Restore(state)
	} else {
		logger.Info("No snapshot found, starting with an empty ledger")
		stores.Categories.SeedDefaults()
	}
	return stores
}
