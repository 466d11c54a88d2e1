package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/migsmoke/internal/checks"
	"github.com/roach88/migsmoke/internal/config"
	"github.com/roach88/migsmoke/internal/harness"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigPath string

	// Register populates the suite. Defaults to checks.Register; tests swap in
	// their own procedures.
	Register func(h *harness.Harness, cfg *config.Config)

	// Clock overrides the harness clock (for testing).
	Clock harness.Clock

	// Color forces colored text output. When nil, color is used only when
	// stdout is a terminal.
	Color *bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the migsmoke CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, so callers
// can inject a suite or clock before flags are parsed.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	if opts.Register == nil {
		opts.Register = checks.Register
	}
	runOpts := &RunOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "migsmoke",
		Short: "Migration smoke tests for a blockchain tool's Go dependencies",
		Long: `migsmoke runs a fixed, ordered suite of smoke checks against the
third-party libraries a blockchain tool depends on: go-ethereum, Solana,
BIP-39, crypto, database drivers and HTTP stacks.

Each check either passes or fails with a message; a failing check never stops
the ones after it. A summary of passed and failed checks is printed at the end.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Command error (bad config, unopenable database, invalid format)

Examples:
  migsmoke
  migsmoke --filter "*address*"
  migsmoke --db ./migsmoke.db --xlsx results.xlsx
  migsmoke --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportError(opts, cmd, runSuite(runOpts, cmd))
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	cmd.Flags().StringVar(&runOpts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&runOpts.XLSX, "xlsx", "", "write results to this .xlsx file")
	cmd.Flags().StringVar(&runOpts.Filter, "filter", "", "run only checks whose name matches this glob")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// reportError writes err as a structured error document in json/yaml mode.
func reportError(opts *RootOptions, cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Report(err)
}

// loadConfig reads the config file named by --config, if any, plus environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, CommandError(CodeConfig, "failed to load config", err)
	}
	return cfg, nil
}
