package app

import (
	"context"
	"fmt"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/docs"
)

// LintDocs checks the documentation of the named services, or of every
// service when the list is empty. The caller decides how to treat
// warning-severity findings.
func (a *App) LintDocs(ctx context.Context, services []string) ([]docs.Finding, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if len(services) == 0 {
		discovered, err := a.store.Services()
		if err != nil {
			return nil, fmt.Errorf("discovering services: %w", err)
		}
		services = discovered
	}
	return docs.Lint(ctx, a.store, services), nil
}
