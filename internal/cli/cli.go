// Package cli defines the forge command tree. Each subcommand follows the
// same shape: an options struct, addFlags binding it to the command, and a
// run method doing the work through the app layer.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalOptions hold the persistent flags shared by every subcommand.
type globalOptions struct {
	servicesDir string
	registry    string
	logLevel    string
	logFormat   string
	noColor     bool

	outW io.Writer
	errW io.Writer
}

func newGlobalOptions(outW, errW io.Writer) *globalOptions {
	return &globalOptions{outW: outW, errW: errW}
}

// addFlags binds the persistent flags to the root command.
func (o *globalOptions) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.servicesDir, "services-dir", "services", "Directory holding the service descriptors.")
	cmd.PersistentFlags().StringVar(&o.registry, "registry", "", "Registry prefix for image references. Overrides forge.hcl.")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	cmd.PersistentFlags().StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	cmd.PersistentFlags().BoolVar(&o.noColor, "no-color", false, "Disable colored output.")
}

// validate rejects unusable flag combinations before any command runs.
func (o *globalOptions) validate() error {
	switch strings.ToLower(o.logFormat) {
	case "text", "json":
	default:
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch strings.ToLower(o.logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if o.noColor {
		color.NoColor = true
	}
	return nil
}

// appConfig translates the persistent flags into an application config.
// Subcommands may adjust the copy before building the app.
func (o *globalOptions) appConfig() app.Config {
	return app.Config{
		ServicesDir: o.servicesDir,
		Registry:    o.registry,
		LogFormat:   strings.ToLower(o.logFormat),
		LogLevel:    strings.ToLower(o.logLevel),
		NoColor:     o.noColor,
	}
}

// buildApp constructs the application the subcommand runs against. Command
// output goes to outW, logs to errW so plan output stays pipeable.
func (o *globalOptions) buildApp(cfg app.Config) (*app.App, error) {
	configured, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return app.New(o.outW, o.errW, configured)
}

func (o *globalOptions) newApp() (*app.App, error) {
	return o.buildApp(o.appConfig())
}

// NewCmdForge creates the root command with every subcommand attached.
func NewCmdForge(outW, errW io.Writer) *cobra.Command {
	o := newGlobalOptions(outW, errW)

	cmd := &cobra.Command{
		Use:   "forge",
		Short: "Multi-service container build orchestrator",
		Long: `Forge orchestrates container image builds across a repository of service
descriptors: it resolves versions and platforms into a dependency graph,
decides what is stale, and drives docker buildx in dependency order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.validate()
		},
	}
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	o.addFlags(cmd)

	cmd.AddCommand(
		newCmdBuild(o),
		newCmdOrder(o),
		newCmdHash(o),
		newCmdList(o),
		newCmdCerts(o),
		newCmdCI(o),
		newCmdDocs(o),
		newCmdDiag(o),
	)

	return cmd
}

// Execute runs the command tree over args. Usage problems come back as
// ExitError code 2; everything else is the command's own error.
func Execute(args []string, outW, errW io.Writer) error {
	cmd := NewCmdForge(outW, errW)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return err
}

// usageErrorf renders a usage complaint with exit code 2.
func usageErrorf(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}
