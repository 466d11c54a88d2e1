package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/migsmoke/internal/config"
	"github.com/roach88/migsmoke/internal/harness"
	"github.com/roach88/migsmoke/internal/logging"
	"github.com/roach88/migsmoke/internal/metrics"
	"github.com/roach88/migsmoke/internal/report"
	"github.com/roach88/migsmoke/internal/store"
)

// RunOptions holds flags for running the suite.
type RunOptions struct {
	*RootOptions
	Database string
	XLSX     string
	Filter   string
}

func runSuite(opts *RunOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}

	logger, closer, err := logging.New(cfg.Logging, cmd.ErrOrStderr(), opts.Verbose)
	if err != nil {
		return CommandError(CodeConfig, "failed to set up logging", err)
	}
	defer closer.Close()

	h, err := buildSuite(opts.RootOptions, cfg, formatter, logger, opts.Filter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := h.Run(ctx)

	// An interrupted run still gets recorded and exported.
	after := context.WithoutCancel(ctx)

	runID, err := recordRun(after, cfg.Store.Path, result, logger)
	if err != nil {
		return err
	}
	if err := exportRun(after, cfg, opts.XLSX, result, logger); err != nil {
		return err
	}

	if formatter.Structured() {
		if err := formatter.SuccessWithRun(result, runID); err != nil {
			return err
		}
	} else if runID != "" {
		formatter.VerboseLog("Run recorded: %s", runID)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d checks failed", result.Failed, result.Total()))
	}
	return nil
}

// buildSuite creates the harness for cfg and registers the (filtered) checks.
func buildSuite(opts *RootOptions, cfg *config.Config, formatter *OutputFormatter, logger *slog.Logger, filter string) (*harness.Harness, error) {
	hopts := []harness.Option{
		harness.WithReporter(newReporter(opts, formatter)),
		harness.WithLogger(logger),
	}
	if opts.Clock != nil {
		hopts = append(hopts, harness.WithClock(opts.Clock))
	}

	h := harness.New(cfg.Title, hopts...)
	opts.Register(h, cfg)

	if filter == "" {
		return h, nil
	}
	if _, err := path.Match(filter, ""); err != nil {
		return nil, CommandError(CodeFilter, fmt.Sprintf("invalid filter %q", filter), err)
	}
	h = h.Subset(func(c harness.Check) bool {
		ok, _ := path.Match(filter, c.Name)
		return ok
	})
	if h.Len() == 0 {
		return nil, CommandError(CodeFilter, fmt.Sprintf("no checks match filter %q", filter), nil)
	}
	return h, nil
}

// newReporter prints progress lines in text mode only; structured formats
// emit a single document at the end.
func newReporter(opts *RootOptions, formatter *OutputFormatter) harness.Reporter {
	if formatter.Structured() {
		return harness.NopReporter{}
	}
	return harness.NewTextReporter(formatter.Writer, useColor(opts, formatter.Writer))
}

func useColor(opts *RootOptions, w io.Writer) bool {
	if opts.Color != nil {
		return *opts.Color
	}
	return w == os.Stdout && !color.NoColor
}

// recordRun stores result when a database path is configured.
func recordRun(ctx context.Context, dbPath string, result *harness.Result, logger *slog.Logger) (string, error) {
	if dbPath == "" {
		return "", nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return "", CommandError(CodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID, err := st.RecordRun(ctx, result)
	if err != nil {
		return "", CommandError(CodeStore, "failed to record run", err)
	}
	logger.Info("run recorded", "run_id", runID, "db", dbPath)
	return runID, nil
}

// exportRun writes the xlsx workbook and Prometheus metrics when configured.
// A failed Pushgateway push is logged and does not fail the command.
func exportRun(ctx context.Context, cfg *config.Config, xlsxPath string, result *harness.Result, logger *slog.Logger) error {
	if xlsxPath != "" {
		if err := report.WriteXLSX(xlsxPath, result); err != nil {
			return CommandError(CodeExport, "failed to write xlsx", err)
		}
		logger.Info("results saved", "path", xlsxPath)
	}

	if cfg.Metrics.Textfile == "" && cfg.Metrics.PushgatewayURL == "" {
		return nil
	}

	exporter, err := metrics.NewExporter(logger)
	if err != nil {
		return CommandError(CodeExport, "failed to create metrics exporter", err)
	}
	exporter.Observe(result)

	if cfg.Metrics.Textfile != "" {
		if err := exporter.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return CommandError(CodeExport, "failed to write metrics", err)
		}
	}
	if cfg.Metrics.PushgatewayURL != "" {
		if err := exporter.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}
	return nil
}

// commandContext returns the command's context, or Background when run
// outside Execute (e.g. in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
