package cli

import (
	"fmt"

	"github.com/contre95/dropzone/src/features/watching"
	"github.com/spf13/cobra"
)

func (c *CLI) newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <watcher> <file>",
		Short: "Run a single file through a watcher, stability check included",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			outcome, err := app.Process(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outcome.Status != watching.StatusProcessed {
				return fmt.Errorf("%s: %s", outcome.Status, outcome.Error)
			}
			_, _ = fmt.Fprintf(out, "%s: %s\n", outcome.Status, outcome.Path)
			if outcome.Summary != "" {
				_, _ = fmt.Fprintln(out, outcome.Summary)
			}
			if outcome.OutputPath != "" {
				_, _ = fmt.Fprintf(out, "output: %s\n", outcome.OutputPath)
			}
			return nil
		},
	}
}
