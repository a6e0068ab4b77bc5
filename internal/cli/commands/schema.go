package commands

import (
	"fmt"

	"github.com/conduit-lang/descriptor/internal/orm/codegen"
	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
	"github.com/conduit-lang/descriptor/internal/persistence"
	"github.com/spf13/cobra"
)

// newSchemaCommand creates the schema command
func newSchemaCommand(opts *options) *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL of the persistence unit",
		Long: `Print the CREATE TABLE statements for every entity type of the
persistence unit. The dialect defaults to the driver of the unit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(opts); err != nil {
				return err
			}

			unit, ok := persistence.Lookup(opts.unit)
			if !ok {
				return fmt.Errorf("%w: %s", persistence.ErrUnknownUnit, opts.unit)
			}

			name := dialectName
			if name == "" {
				name = unit.Driver
			}
			d, err := dialect.ForDriver(name)
			if err != nil {
				return err
			}

			mm, err := schema.Introspect(unit.Types...)
			if err != nil {
				return fmt.Errorf("failed to introspect unit %q: %w", unit.Name, err)
			}

			statements, err := codegen.NewDDLGenerator(d).GenerateSchema(mm)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, stmt := range statements {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, stmt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "", "SQL dialect (postgres, sqlite)")
	return cmd
}
