package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MahdiBaghbani/containers-sub001/internal/descriptor"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Command output goes to outW; logs go to the logger's own writer.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	store  *descriptor.Store
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and descriptor
// store, and with repository defaults from forge.hcl folded into the
// configuration.
func New(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	store := descriptor.New(cfg.ServicesDir)
	repo, err := store.LoadRepoConfig()
	if err != nil {
		return nil, fmt.Errorf("loading repository defaults: %w", err)
	}
	cfg.applyRepoDefaults(repo, store.RepoRoot())
	logger.Debug("Repository defaults applied.", "registry", cfg.Registry, "cert_dir", cfg.CertDir, "cache_dir", cfg.CacheDir)

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		store:  store,
	}, nil
}

// Out returns the command output writer.
func (a *App) Out() io.Writer {
	return a.outW
}

// Store returns the application's descriptor store. This is primarily for
// testing.
func (a *App) Store() *descriptor.Store {
	return a.store
}
