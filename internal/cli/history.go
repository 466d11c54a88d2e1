package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/migsmoke/internal/harness"
	"github.com/roach88/migsmoke/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Check    string
	Delete   bool
}

// RunDetail is one recorded run with its check results.
type RunDetail struct {
	Run    store.RunRecord       `json:"run" yaml:"run"`
	Checks []harness.CheckResult `json:"checks" yaml:"checks"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show runs recorded with --db, newest first. With a run ID, show the
individual check results of that run. With --check, show one check's outcome
across runs. With --delete, remove the given run and its check results.

The database defaults to MIGSMOKE_DB or store.path from the config file.

Examples:
  migsmoke history --db ./migsmoke.db
  migsmoke history --db ./migsmoke.db --limit 5
  migsmoke history --db ./migsmoke.db 0190a1b2-... --format json
  migsmoke history --db ./migsmoke.db --check "Wei conversion"
  migsmoke history --db ./migsmoke.db --delete 0190a1b2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return reportError(rootOpts, cmd, showHistory(opts, runID, cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Check, "check", "", "show the outcomes of one check across runs")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the given run")

	return cmd
}

func showHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath == "" {
		return CommandError(CodeUsage, "no database: pass --db or set MIGSMOKE_DB", nil)
	}
	if opts.Limit < 0 {
		return CommandError(CodeUsage, fmt.Sprintf("invalid limit %d", opts.Limit), nil)
	}
	if opts.Delete && runID == "" {
		return CommandError(CodeUsage, "--delete requires a run ID", nil)
	}
	if opts.Check != "" && runID != "" {
		return CommandError(CodeUsage, "--check cannot be combined with a run ID", nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return CommandError(CodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Check != "" {
		return showCheckHistory(ctx, st, opts, formatter, cmd.OutOrStdout())
	}

	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if errors.Is(err, store.ErrRunNotFound) {
			return CommandError(CodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		}
		if err != nil {
			return CommandError(CodeStore, "failed to read run", err)
		}
		if opts.Delete {
			return deleteRun(ctx, st, run, formatter, cmd.OutOrStdout())
		}
		checks, err := st.CheckResults(ctx, runID)
		if err != nil {
			return CommandError(CodeStore, "failed to read check results", err)
		}

		detail := RunDetail{Run: run, Checks: checks}
		if formatter.Structured() {
			return formatter.Success(detail)
		}
		printRunDetail(cmd.OutOrStdout(), detail)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return CommandError(CodeStore, "failed to list runs", err)
	}
	if formatter.Structured() {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %s  %d passed, %d failed  %s\n",
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339),
			status(run.Pass),
			run.Passed,
			run.Failed,
			run.Title,
		)
	}
	return nil
}

func showCheckHistory(ctx context.Context, st *store.Store, opts *HistoryOptions, formatter *OutputFormatter, w io.Writer) error {
	records, err := st.CheckHistory(ctx, opts.Check, opts.Limit)
	if err != nil {
		return CommandError(CodeStore, "failed to read check history", err)
	}
	if formatter.Structured() {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintf(w, "No results recorded for %q.\n", opts.Check)
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s  %s", rec.RunID, rec.StartedAt.UTC().Format(time.RFC3339), status(rec.Pass))
		if rec.Note != "" {
			fmt.Fprintf(w, "  %s", rec.Note)
		}
		if rec.Error != "" {
			fmt.Fprintf(w, "  Error: %s", rec.Error)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// DeletedRun is the structured payload of history --delete.
type DeletedRun struct {
	Deleted store.RunRecord `json:"deleted" yaml:"deleted"`
}

func deleteRun(ctx context.Context, st *store.Store, run store.RunRecord, formatter *OutputFormatter, w io.Writer) error {
	if err := st.DeleteRun(ctx, run.ID); err != nil {
		return CommandError(CodeStore, "failed to delete run", err)
	}
	if formatter.Structured() {
		return formatter.Success(DeletedRun{Deleted: run})
	}
	fmt.Fprintf(w, "Deleted run %s.\n", run.ID)
	return nil
}

func printRunDetail(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "Run: %s\n", d.Run.ID)
	fmt.Fprintf(w, "Title: %s\n", d.Run.Title)
	fmt.Fprintf(w, "Started: %s\n", d.Run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Status: %s\n", status(d.Run.Pass))
	fmt.Fprintf(w, "Results: %d passed, %d failed\n\n", d.Run.Passed, d.Run.Failed)

	for _, c := range d.Checks {
		fmt.Fprintf(w, "  [%d] %s %s", c.Seq, status(c.Pass), c.Name)
		if c.Note != "" {
			fmt.Fprintf(w, " %s", c.Note)
		}
		fmt.Fprintln(w)
		if c.Error != "" {
			fmt.Fprintf(w, "       Error: %s\n", c.Error)
		}
	}
}

func status(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
