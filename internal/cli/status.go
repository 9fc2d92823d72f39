package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Sessions.Load(args[0])
			if err != nil {
				return err
			}

			line := app.Renderer.Session(sess, app.Table.Terminal(), app.Table.StepName(sess.Step))
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}
