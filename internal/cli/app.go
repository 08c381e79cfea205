// Package cli wires the stepline commands together.
//
// Each command lives in its own file and receives the shared [App]
// container. Commands signal failure through [ExitError] rather than
// calling os.Exit, so tests can drive them and assert on exit codes.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stepline/internal/config"
	"stepline/internal/output"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config  *config.Config
	Printer *output.Printer
}

// NewRootCommand builds the stepline root command with all subcommands
// attached.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "stepline",
		Short: "Run pipeline definitions locally",
		Long: `stepline parses Buildkite-style pipeline definitions and runs their
steps locally: on the host shell, or inside a container when a step
carries a docker plugin reference. Wait barriers, per-step logs, build
records, and artifact uploads behave the way the hosted pipeline would.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand(app),
		newValidateCommand(app),
		newStepsCommand(app),
		newStatusCommand(app),
		newPushLogsCommand(app),
		newWatchCommand(app),
		newServeCommand(app),
	)
	return root
}

// Execute loads configuration, runs the CLI, and returns the process
// exit code. SIGINT and SIGTERM cancel the command context so a running
// step is interrupted cleanly.
func Execute() int {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	printer := output.NewPrinter()
	printer.SetMaxLineLength(cfg.Output.MaxLineLength)

	app := &App{
		Config:  cfg,
		Printer: printer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(app)
	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// pipelinePath resolves the pipeline file for commands taking an optional
// positional argument.
func pipelinePath(app *App, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return app.Config.PipelinePath
}

// parseEnvFlags turns --env KEY=VALUE flags into a map.
func parseEnvFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(flags))
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q (expected KEY=VALUE)", flag)
		}
		env[key] = value
	}
	return env, nil
}
