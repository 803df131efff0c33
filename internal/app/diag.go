package app

import (
	"context"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/diag"
)

// Diagnose collects the diagnostics report against the named build backend.
func (a *App) Diagnose(ctx context.Context, builderName string) (*diag.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if builderName == "" {
		builderName = "docker"
	}
	b, err := builder.New(builderName, builder.Options{})
	if err != nil {
		return nil, err
	}
	return diag.Collect(ctx, a.cfg.ServicesDir, a.cfg.CacheDir, b)
}
