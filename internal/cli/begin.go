package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"formflow/internal/field"
	"formflow/internal/session"
	"formflow/internal/store"
)

func newBeginCommand(app *App) *cobra.Command {
	var updateID string

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Start a new form session",
		Long: `Start a new multi-step form session at step 1.

Without flags a create session builds a new entity. With --update the
session rewrites an existing record: it is fetched once before step 1 and
its current values seed the draft, so steps only need to submit the fields
being changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := session.ModeCreate
			if updateID != "" {
				mode = session.ModeUpdate
			}

			// Update flow fetches the target once, before step 1; its
			// current values seed the draft.
			var rec *store.Record
			if mode == session.ModeUpdate {
				var err error
				rec, err = app.Records.FindByID(updateID)
				if err != nil {
					return err
				}
			}

			sess, err := app.Sessions.Begin(mode, updateID)
			if err != nil {
				return err
			}

			if rec != nil {
				sess.SetDraft(field.Normalize(rec.Values))
				if err := app.Sessions.Save(sess); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s\n", sess.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "step 1/%d (%s)\n", app.Table.Terminal(), app.Table.StepName(1))
			return nil
		},
	}

	cmd.Flags().StringVar(&updateID, "update", "", "update the existing record with this ID")

	return cmd
}
