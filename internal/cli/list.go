package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/migsmoke/internal/harness"
)

// CheckInfo describes one registered check.
type CheckInfo struct {
	Seq  int    `json:"seq" yaml:"seq"`
	Name string `json:"name" yaml:"name"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered checks in execution order",
		Long: `List the checks the suite would run, in execution order, without
running any of them.

Examples:
  migsmoke list
  migsmoke list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportError(rootOpts, cmd, listChecks(rootOpts, cmd))
		},
	}
}

func listChecks(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	h := harness.New(cfg.Title)
	opts.Register(h, cfg)

	infos := make([]CheckInfo, 0, h.Len())
	for i, c := range h.Checks() {
		infos = append(infos, CheckInfo{Seq: i + 1, Name: c.Name})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.Structured() {
		return formatter.Success(infos)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%d checks)\n", cfg.Title, len(infos))
	for _, info := range infos {
		fmt.Fprintf(w, "  %2d. %s\n", info.Seq, info.Name)
	}
	return nil
}
