package commands

import (
	"fmt"
	"strconv"

	"github.com/conduit-lang/descriptor/internal/cli/ui"
	"github.com/spf13/cobra"
)

// newResourcesCommand creates the resources command
func newResourcesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the entities of the persistence unit",
		Long: `List every entity type managed by the persistence unit, with its
resolved name, Go type, and key property.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if a.model.Len() == 0 {
				fmt.Fprintf(out, "No entities in unit %s\n", opts.unit)
				return nil
			}

			table := ui.NewTable(out, []string{"NAME", "TYPE", "KEY", "PROPERTIES"}, opts.noColor)
			for _, d := range a.model.Entities() {
				s := d.Summary()
				table.AddRow(s.Name, s.Type, s.Key, strconv.Itoa(len(s.Properties)))
			}
			table.Render()
			return nil
		},
	}
}
