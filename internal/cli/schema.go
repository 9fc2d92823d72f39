package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSchemaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the active form definition",
		Long: `Print the form definition in effect as YAML: the entity, the unique
field, reference lists, and each step's fields and rules. Useful for
checking which definition auto-discovery picked up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(app.Definition)
			if err != nil {
				return fmt.Errorf("failed to marshal form definition: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
