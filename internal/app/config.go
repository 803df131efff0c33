package app

import (
	"errors"
	"path/filepath"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ServicesDir is the directory holding the service descriptors.
	ServicesDir string
	// Registry prefixes every image reference. Optional.
	Registry string
	// CertDir receives provisioned certificates. Optional; defaults to
	// certs/ under the repository root.
	CertDir string
	// CacheDir is the scratch directory inspected by diagnostics. Optional.
	CacheDir string

	LogFormat string
	LogLevel  string
	NoColor   bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ServicesDir == "" {
		return nil, errors.New("ServicesDir is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// applyRepoDefaults fills unset fields from the repository configuration;
// values given on the command line always win. Relative directories resolve
// against the repository root.
func (c *Config) applyRepoDefaults(repo *config.RepoConfig, repoRoot string) {
	if c.Registry == "" {
		c.Registry = repo.Registry
	}
	if c.CertDir == "" {
		c.CertDir = repo.CertDir
	}
	if c.CertDir == "" {
		c.CertDir = "certs"
	}
	if c.CacheDir == "" {
		c.CacheDir = repo.CacheDir
	}

	if !filepath.IsAbs(c.CertDir) {
		c.CertDir = filepath.Join(repoRoot, c.CertDir)
	}
	if c.CacheDir != "" && !filepath.IsAbs(c.CacheDir) {
		c.CacheDir = filepath.Join(repoRoot, c.CacheDir)
	}
}
