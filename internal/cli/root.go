package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"formflow/internal/config"
)

// NewRootCommand creates the formflow root command with all subcommands
// registered against the given [App].
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "formflow",
		Short: "Multi-step form validation and commit pipeline",
		Long: `formflow drives a multi-step form: each step validates its input against
the accumulated rule set of all steps so far, advances only on valid data,
and persists the target entity exactly once, at the final step.

Start an interaction with 'begin', feed it with 'submit', and inspect
progress with 'status'. Rejected submissions print field errors and leave
the session where it was so the same step can be corrected and resubmitted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newBeginCommand(app),
		newSubmitCommand(app),
		newStatusCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newSchemaCommand(app),
	)

	return root
}

// ExecuteResult carries the outcome of a CLI run for callers that must not
// terminate the process, such as tests.
type ExecuteResult struct {
	// ExitCode is the code the process should exit with.
	ExitCode int

	// Err is the error that produced a non-zero code, if any.
	Err error
}

// RunWithConfig wires an [App] from cfg and executes the CLI with the given
// arguments and output streams.
//
// An [ExitError] maps directly to its exit code without extra output; its
// message was already printed by the failing command. Any other error prints
// to errOut and maps to exit code 1.
func RunWithConfig(cfg *config.Config, args []string, out, errOut io.Writer) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}

	root := NewRootCommand(app)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the CLI against os.Args, and exits the
// process with the resulting code. This is the entry point used by main.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(result.ExitCode)
}
