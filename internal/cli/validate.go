package cli

import (
	"github.com/spf13/cobra"

	"stepline/internal/pipeline"
)

func newValidateCommand(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [pipeline-file]",
		Short: "Check a pipeline definition",
		Long: `Parse a pipeline definition and report every problem found. Exits
non-zero when the pipeline is not runnable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipelinePath(app, args)
			p, err := pipeline.Load(path)
			if err != nil {
				return err
			}

			problems := p.Validate(strict)
			if len(problems) == 0 {
				app.Printer.Infof("%s: ok (%d steps)", path, len(p.Steps))
				return nil
			}

			for _, problem := range problems {
				app.Printer.Errorf("%s: %s", path, problem)
			}
			return NewExitError(1)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "also report unknown plugin references")
	return cmd
}
