package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"formflow/internal/field"
	"formflow/internal/pipeline"
)

func newSubmitCommand(app *App) *cobra.Command {
	var (
		step int
		data string
	)

	cmd := &cobra.Command{
		Use:   "submit <session-id>",
		Short: "Submit field values for the session's current step",
		Long: `Submit a JSON object of field values for the session's current step.

The submission is validated against every rule of steps 1 through the
current step. On success the session advances, or commits the entity if the
current step is the final one. On rejection the field errors print and the
session stays on its step; correct the values and submit again.

The body comes from --data, or from stdin when --data is omitted:

  formflow submit 4f1c... --data '{"kind": "standard", "name": "widget"}'
  echo '{"price": 10}' | formflow submit 4f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Sessions.Load(args[0])
			if err != nil {
				return err
			}

			body := []byte(data)
			if data == "" {
				body, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read submission body: %w", err)
				}
			}

			fs, err := field.Decode(body)
			if err != nil {
				return err
			}

			submitted := step
			if submitted == 0 {
				submitted = sess.Step
			}

			outcome, err := app.Controller.Submit(sess, fs, submitted)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.Outcome(outcome))

			if outcome.Kind == pipeline.OutcomeReject {
				return NewExitError(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "step number to submit (defaults to the session's current step)")
	cmd.Flags().StringVar(&data, "data", "", "JSON submission body (reads stdin when omitted)")

	return cmd
}
