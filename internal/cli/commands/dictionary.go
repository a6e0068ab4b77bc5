package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/conduit-lang/descriptor/internal/cli/ui"
	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/util/convert"
	"github.com/spf13/cobra"
)

// errNotFound is returned by get when no entity has the given key
var errNotFound = errors.New("not found")

// newCountCommand creates the count command
func newCountCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "count <entity>",
		Short:   "Print the number of stored entities",
		Example: "  descriptor count sample-entity-01 --seed 500",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.entity(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}

			total, err := a.dict.LookupTotals(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		},
	}
}

// newPageCommand creates the page command
func newPageCommand(opts *options) *cobra.Command {
	var row, count int

	cmd := &cobra.Command{
		Use:   "page <entity>",
		Short: "Print a page of stored entities",
		Long: `Print up to --count entities starting at the zero-based --row. Pages
are ordered by key, so consecutive pages never overlap.`,
		Example: "  descriptor page sample-entity-01 --row 50 --count 10 --seed 500",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if row < 0 || count < 0 {
				return fmt.Errorf("--row and --count must not be negative")
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.entity(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}

			entities, err := a.dict.LookupPaginated(cmd.Context(), d, row, count)
			if err != nil {
				return err
			}
			return writeEntities(cmd.OutOrStdout(), a.model, d, entities, opts.noColor)
		},
	}

	cmd.Flags().IntVar(&row, "row", 0, "Zero-based index of the first entity")
	cmd.Flags().IntVar(&count, "count", 20, "Maximum number of entities")
	return cmd
}

// newGetCommand creates the get command
func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <key>",
		Short: "Print the entity with the given key",
		Long: `Print the entity with the given key. Composite keys are given as JSON
objects, for example '{"identifier":1,"sample":"a"}'.`,
		Example: "  descriptor get sample-entity-01 1 --seed 10",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.entity(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}
			keyed, ok := d.Keyed()
			if !ok {
				return fmt.Errorf("entity %s has no key", d.Name())
			}

			key, err := convert.FromString(args[1], keyed.KeyType())
			if err != nil {
				return err
			}

			entity, found, err := a.dict.LookupKey(cmd.Context(), keyed, key)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s with key %s", errNotFound, d.Name(), args[1])
			}

			values, err := a.model.Values(d, entity)
			if err != nil {
				return err
			}
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), opts.noColor)
			for _, v := range values {
				kv.AddRow(v.Property.DisplayName(), convert.ToString(v.Value))
			}
			kv.Render()
			return nil
		},
	}
}

// writeEntities renders entities as a table with one column per property
func writeEntities(w io.Writer, m *model.Model, d *model.EntityDescriptor, entities []any, noColor bool) error {
	properties := d.Properties()
	headers := make([]string, len(properties))
	for i, p := range properties {
		headers[i] = p.DisplayName()
	}

	table := ui.NewTable(w, headers, noColor)
	for _, entity := range entities {
		values, err := m.Values(d, entity)
		if err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = convert.ToString(v.Value)
		}
		table.AddRow(cells...)
	}
	table.Render()
	return nil
}
