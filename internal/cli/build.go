package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
)

// depCacheValue validates the dependency freshness policy at flag parse
// time.
type depCacheValue orchestrator.DepCacheMode

var _ pflag.Value = (*depCacheValue)(nil)

func (v *depCacheValue) String() string { return string(*v) }

func (v *depCacheValue) Set(s string) error {
	mode, err := orchestrator.ParseDepCacheMode(s)
	if err != nil {
		return err
	}
	*v = depCacheValue(mode)
	return nil
}

func (v *depCacheValue) Type() string { return "mode" }

// buildOptions defines flags for the `forge build` command.
type buildOptions struct {
	global *globalOptions

	depCache        depCacheValue
	failFast        bool
	push            bool
	load            bool
	remote          bool
	builder         string
	progress        string
	platforms       []string
	buildxPlatforms []string
	allVersions     bool
	statusPort      int
}

func newBuildOptions(global *globalOptions) *buildOptions {
	return &buildOptions{
		global:   global,
		depCache: depCacheValue(orchestrator.DepCacheSoft),
	}
}

// addFlags binds the build flags to the command.
func (o *buildOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().Var(&o.depCache, "dep-cache", "Dependency freshness policy. Options: 'off', 'soft', or 'strict'.")
	cmd.Flags().BoolVar(&o.failFast, "fail-fast", false, "Stop scheduling new nodes after the first failure.")
	cmd.Flags().BoolVar(&o.push, "push", false, "Push built images to the registry.")
	cmd.Flags().BoolVar(&o.load, "load", false, "Load built images into the local image store.")
	cmd.Flags().BoolVar(&o.remote, "remote", false, "Judge dependency freshness by remote manifest presence (CI).")
	cmd.Flags().StringVar(&o.builder, "builder", "docker", "Build backend. Options: 'docker' or 'noop'.")
	cmd.Flags().StringVar(&o.progress, "progress", "", "Buildx progress mode, e.g. 'plain'.")
	cmd.Flags().StringSliceVar(&o.platforms, "platform", nil, "Only build these platform variants of multi-platform services.")
	cmd.Flags().StringSliceVar(&o.buildxPlatforms, "buildx-platform", nil, "OS/arch list for buildx, e.g. linux/amd64.")
	cmd.Flags().BoolVar(&o.allVersions, "all-versions", false, "Build every manifest version instead of the latest.")
	cmd.Flags().IntVar(&o.statusPort, "status-port", 0, "Port for the HTTP status endpoint. 0 is disabled.")
}

// run executes the `forge build` command.
func (o *buildOptions) run(cmd *cobra.Command, args []string) error {
	if o.statusPort < 0 || o.statusPort > 65535 {
		return usageErrorf("invalid status-port %d: must be between 0 and 65535", o.statusPort)
	}

	a, err := o.global.newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := a.Build(ctx, app.BuildOptions{
		Targets: args,
		TargetOptions: app.TargetOptions{
			AllVersions: o.allVersions,
			Platforms:   o.platforms,
		},
		Builder:         o.builder,
		Progress:        o.progress,
		BuildxPlatforms: o.buildxPlatforms,
		DepCache:        orchestrator.DepCacheMode(o.depCache),
		FailFast:        o.failFast,
		Push:            o.push,
		Load:            o.load,
		Remote:          o.remote,
		StatusPort:      o.statusPort,
	})
	if summary != nil {
		renderSummary(o.global.outW, summary)
	}
	if err != nil {
		return err
	}
	if !summary.Success() {
		return &ExitError{Code: 1, Message: renderFailureLine(summary)}
	}
	return nil
}

// newCmdBuild creates the `forge build` command.
func newCmdBuild(global *globalOptions) *cobra.Command {
	o := newBuildOptions(global)

	cmd := &cobra.Command{
		Use:   "build [service[:version[:platform]]...]",
		Short: "Build the targets and their stale dependencies in dependency order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
