package app

import (
	"context"

	"github.com/MahdiBaghbani/containers-sub001/internal/ciwf"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

// CIOptions configure workflow generation.
type CIOptions struct {
	Targets []string
	TargetOptions
	Workflow ciwf.Options

	// Stdout renders the workflow to the command output instead of writing
	// it under .github/workflows/.
	Stdout bool
}

// GenerateCI resolves the plan and emits a GitHub Actions workflow mirroring
// it: one job per node, needs edges per graph edges. Returns the path the
// workflow was written to, empty when rendered to stdout.
func (a *App) GenerateCI(ctx context.Context, opts CIOptions) (string, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	plan, err := a.ResolvePlan(ctx, opts.Targets, opts.TargetOptions)
	if err != nil {
		return "", err
	}
	wf := ciwf.Generate(plan.Graph, plan.Order, opts.Workflow)

	if opts.Stdout {
		out, err := wf.Render()
		if err != nil {
			return "", err
		}
		if _, err := a.outW.Write(out); err != nil {
			return "", err
		}
		return "", nil
	}

	path, err := wf.WriteFile(a.store.RepoRoot())
	if err != nil {
		return "", err
	}
	a.logger.Info("Workflow written.", "path", path, "jobs", len(plan.Order))
	return path, nil
}
