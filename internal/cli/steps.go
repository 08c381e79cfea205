package cli

import (
	"github.com/spf13/cobra"

	"stepline/internal/pipeline"
)

func newStepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "steps [pipeline-file]",
		Short: "List a pipeline's steps and phases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipelinePath(app, args)
			p, err := pipeline.Load(path)
			if err != nil {
				return err
			}
			printPlan(app, p)
			return nil
		},
	}
}
