package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"stepline/internal/artifact"
	"stepline/internal/build"
)

func newPushLogsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push-logs [build-id]",
		Short: "Upload a build's step logs to the artifact store",
		Long: `Upload every step log of a recorded build to the configured artifact
store. With no argument the most recent build's logs are pushed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := build.NewReader(app.Config.BuildDir)

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
					return NewExitError(1)
				}
				return err
			}

			uploader, err := artifact.NewUploader(app.Config.Artifacts)
			if err != nil {
				return err
			}

			buildDir := filepath.Join(reader.Root(), b.ID)
			keys, err := uploader.PushLogs(cmd.Context(), b, buildDir)
			if err != nil {
				return err
			}

			for _, key := range keys {
				app.Printer.Infof("pushed %s", key)
			}
			app.Printer.Infof("%d log file(s) pushed for build %s", len(keys), b.ID)
			return nil
		},
	}
}
