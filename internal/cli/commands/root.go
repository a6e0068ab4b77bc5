package commands

import (
	"runtime"

	"github.com/conduit-lang/descriptor/examples/sample"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// options holds the persistent flags shared by every command
type options struct {
	unit    string
	verbose bool
	noColor bool
	seed    int
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "descriptor",
		Short: "Entity descriptors and paginated dictionaries over a relational store",
		Long: color.CyanString(`Descriptor - entity metadata and dictionaries

Descriptor resolves entity and property metadata from struct tags and
serves the entities of a persistence unit as paginated dictionaries.

Features:
  • Generic and persistence-specific tag resolution
  • Entity discovery per persistence unit
  • Key lookups, pages and totals over PostgreSQL or SQLite
  • Read-only JSON API`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.unit, "unit", "u", sample.Unit, "Persistence unit to open")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.IntVar(&opts.seed, "seed", 0, "Insert N sample rows after opening the unit")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newResourcesCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newSchemaCommand(opts))
	rootCmd.AddCommand(newCountCommand(opts))
	rootCmd.AddCommand(newPageCommand(opts))
	rootCmd.AddCommand(newGetCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the descriptor version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			out := cmd.OutOrStdout()
			titleColor.Fprint(out, "Descriptor version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
