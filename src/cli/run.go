package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch every configured folder until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgManager, cleanup, err := c.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			app, err := NewApp(cfgManager)
			if err != nil {
				return err
			}
			defer app.Close()

			slog.Info("Dropzone started. Press Ctrl+C to shut down.", "watchers", len(cfgManager.Get().Watchers))
			if err := app.Run(cmd.Context()); err != nil {
				return err
			}
			slog.Info("Dropzone gracefully shut down.")
			return nil
		},
	}
}
