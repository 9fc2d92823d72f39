package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"formflow/internal/store"
)

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Show one persisted record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Records.FindByID(args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					fmt.Fprintf(cmd.ErrOrStderr(), "no record with id %s\n", args[0])
					return NewExitError(1)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.Record(rec))
			return nil
		},
	}
}
