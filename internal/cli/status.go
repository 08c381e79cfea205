package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"stepline/internal/build"
)

func newStatusCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status [build-id]",
		Short: "Show a recorded build",
		Long: `Show the recorded result of a build. With no argument the most recent
build is shown; with --list, recent builds are listed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := build.NewReader(app.Config.BuildDir)

			if limit > 0 {
				builds, err := reader.List(limit)
				if err != nil {
					return err
				}
				if len(builds) == 0 {
					app.Printer.Infof("no recorded builds")
					return nil
				}
				for _, b := range builds {
					app.Printer.Infof("%s  %-8s  %s", b.ID, b.Status, b.StartedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}

			var b *build.Build
			var err error
			if len(args) > 0 {
				b, err = reader.Load(args[0])
			} else {
				b, err = reader.LoadLatest()
			}
			if err != nil {
				if errors.Is(err, build.ErrNoBuilds) {
					app.Printer.Infof("no recorded builds")
					return nil
				}
				return err
			}

			app.Printer.Summary(b)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "list", 0, "list the N most recent builds instead")
	return cmd
}
