package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/conduit-lang/descriptor/internal/cli/ui"
	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newDescribeCommand creates the describe command
func newDescribeCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <entity>",
		Short: "Show the resolved descriptor of an entity",
		Long: `Show the resolved descriptor of an entity: its name, type, key, and
every property with its field, type, and key, embedded, and reference flags.`,
		Example: `  descriptor describe sample-entity-01
  descriptor describe SampleEntity02 --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (use table or yaml)", format)
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

			if format == "yaml" {
				return writeYAML(cmd.OutOrStdout(), d.Summary())
			}
			writeDescriptor(cmd.OutOrStdout(), d.Summary(), opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, yaml)")
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func writeDescriptor(w io.Writer, s model.EntitySummary, noColor bool) {
	ui.Header(w, s.Name, noColor)

	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("type", s.Type)
	if s.Key != "" {
		kv.AddRow("key", s.Key)
		kv.AddRow("key type", s.KeyType)
	}
	kv.Render()
	fmt.Fprintln(w)

	table := ui.NewTable(w, []string{"PROPERTY", "FIELD", "TYPE", "FLAGS"}, noColor)
	for _, p := range s.Properties {
		table.AddRow(p.Name, p.Field, p.Type, flags(p))
	}
	table.Render()
}

func flags(p model.PropertySummary) string {
	var out []string
	if p.Key {
		out = append(out, "key")
	}
	if p.Embedded {
		out = append(out, "embedded")
	}
	if p.References != "" {
		out = append(out, "references "+p.References)
	}
	if p.Alias != "" {
		out = append(out, "alias "+p.Alias)
	}
	return strings.Join(out, ", ")
}
