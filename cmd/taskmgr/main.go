package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"taskmgr/internal/config"
	"taskmgr/internal/importer"
	"taskmgr/internal/logging"
	"taskmgr/internal/service"
	"taskmgr/internal/storage"
	"taskmgr/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = cfg.ApplyEnv()

	logger, logCloser, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logCloser.Close()

	lock, err := storage.AcquireLock(cfg.DataPath)
	if errors.Is(err, storage.ErrLocked) {
		return fmt.Errorf("another taskmgr is already using %s", cfg.DataPath)
	}
	if err != nil {
		return fmt.Errorf("failed to lock task store: %w", err)
	}
	defer lock.Release()

	store, err := storage.Open(cfg.Backend, cfg.DataPath)
	if errors.Is(err, storage.ErrWrongFormat) {
		return fmt.Errorf("%s is not a %s file; set data_path or backend to match it", cfg.DataPath, cfg.Backend)
	}
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer store.Close()

	logger.Info("starting", "config", configPath, "data", cfg.DataPath, "backend", cfg.Backend)

	svc := service.New(store, service.WithLogger(logger))
	src := importer.NewHTTPSource(cfg.Import.URL, time.Duration(cfg.Import.TimeoutSeconds)*time.Second)

	if err := ui.Run(svc, cfg, src); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
