package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"stepline/internal/artifact"
	"stepline/internal/build"
	"stepline/internal/executor"
	"stepline/internal/pipeline"
	"stepline/internal/runner"
)

func newRunCommand(app *App) *cobra.Command {
	var (
		envFlags []string
		dryRun   bool
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "run [pipeline-file]",
		Short: "Run a pipeline",
		Long: `Parse, validate, and execute a pipeline definition. With no argument
the configured default pipeline file is used.

Steps run in order; a wait barrier stops the run when an earlier step
failed, unless the barrier sets continue_on_failure. The exit code is
zero only when every step passed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipelinePath(app, args)
			p, err := pipeline.Load(path)
			if err != nil {
				return err
			}

			if problems := p.Validate(strict); len(problems) > 0 {
				for _, problem := range problems {
					app.Printer.Errorf("%s: %s", path, problem)
				}
				return NewExitError(1)
			}

			extraEnv, err := parseEnvFlags(envFlags)
			if err != nil {
				return err
			}

			if dryRun {
				printPlan(app, p)
				return nil
			}

			r := buildRunner(app)
			b, err := r.Run(cmd.Context(), p, path, extraEnv)
			if err != nil {
				return err
			}

			app.Printer.Summary(b)
			if b.Status != build.StatusPassed {
				return NewExitError(1)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&envFlags, "env", "e", nil, "extra KEY=VALUE environment applied to every step")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the execution plan without running anything")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail validation on unknown plugin references")
	return cmd
}

// buildRunner assembles the production runner from config.
func buildRunner(app *App) *runner.Runner {
	cfg := app.Config
	exec := executor.NewLocal(cfg.Shell, cfg.DockerBinary)
	writer := build.NewWriter(cfg.BuildDir)

	r := runner.New(exec, writer, app.Printer)
	if cfg.DefaultTimeoutMinutes > 0 {
		r.SetDefaultTimeout(time.Duration(cfg.DefaultTimeoutMinutes) * time.Minute)
	}

	if cfg.Artifacts.Enabled() {
		uploader, err := artifact.NewUploader(cfg.Artifacts)
		if err != nil {
			if !errors.Is(err, artifact.ErrNotConfigured) {
				app.Printer.Errorf("artifact uploads disabled: %v", err)
			}
		} else {
			r.SetArtifacts(uploader)
		}
	}
	return r
}

// printPlan renders the phases a run would execute.
func printPlan(app *App, p *pipeline.Pipeline) {
	index := 0
	for _, phase := range p.Phases() {
		for _, step := range phase.Steps {
			index++
			app.Printer.Infof("%2d. %s", index, step.DisplayLabel())
		}
		if phase.Barrier != nil {
			if phase.Barrier.ContinueOnFailure {
				app.Printer.Infof("--- wait (continue on failure) ---")
			} else {
				app.Printer.Infof("--- wait ---")
			}
		}
	}
}
