package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"stepline/internal/pipeline"
	"stepline/internal/watch"
)

func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [pipeline-file]",
		Short: "Rerun the pipeline when files change",
		Long: `Watch the working tree and rerun the pipeline after changes settle.
A change arriving mid-run cancels that run and starts over. Stop with
Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipelinePath(app, args)
			cfg := app.Config

			run := func(ctx context.Context) {
				p, err := pipeline.Load(path)
				if err != nil {
					app.Printer.Errorf("%v", err)
					return
				}
				if problems := p.Validate(false); len(problems) > 0 {
					for _, problem := range problems {
						app.Printer.Errorf("%s: %s", path, problem)
					}
					return
				}

				b, err := buildRunner(app).Run(ctx, p, path, nil)
				if err != nil {
					app.Printer.Errorf("%v", err)
					return
				}
				app.Printer.Summary(b)
			}

			// First run before settling into watch mode.
			run(cmd.Context())

			debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
			w := watch.New(debounce, cfg.Watch.Ignore, run)
			app.Printer.Infof("\nwatching for changes (Ctrl-C to stop)")
			return w.Watch(cmd.Context(), ".")
		},
	}
}
