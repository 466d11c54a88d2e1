// Package metrics exports run results as Prometheus gauges, either to a
// node_exporter textfile or to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/roach88/migsmoke/internal/harness"
)

const namespace = "migsmoke"

// pushTimeout bounds a single Pushgateway request.
const pushTimeout = 10 * time.Second

// Exporter holds the gauges for the most recent run.
type Exporter struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	passed        prometheus.Gauge
	failed        prometheus.Gauge
	lastRun       prometheus.Gauge
	checkSuccess  *prometheus.GaugeVec
	checkDuration *prometheus.GaugeVec
}

// NewExporter creates an Exporter with its own registry.
//
// Registered metrics:
//   - migsmoke_checks_passed
//   - migsmoke_checks_failed
//   - migsmoke_last_run_timestamp_seconds
//   - migsmoke_check_success{check}
//   - migsmoke_check_duration_seconds{check}
func NewExporter(logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Exporter{
		registry: prometheus.NewRegistry(),
		logger:   logger,
		passed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_passed",
			Help:      "Number of checks that passed in the last run",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_failed",
			Help:      "Number of checks that failed in the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started",
		}),
		checkSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_success",
			Help:      "1 if the check passed in the last run, 0 otherwise",
		}, []string{"check"}),
		checkDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of the check in the last run",
		}, []string{"check"}),
	}

	for _, c := range []prometheus.Collector{e.passed, e.failed, e.lastRun, e.checkSuccess, e.checkDuration} {
		if err := e.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return e, nil
}

// Observe replaces the gauges with the outcome of result.
func (e *Exporter) Observe(result *harness.Result) {
	e.checkSuccess.Reset()
	e.checkDuration.Reset()

	e.passed.Set(float64(result.Passed))
	e.failed.Set(float64(result.Failed))
	e.lastRun.Set(float64(result.StartedAt.UnixNano()) / 1e9)

	for _, cr := range result.Checks {
		success := 0.0
		if cr.Pass {
			success = 1
		}
		e.checkSuccess.WithLabelValues(cr.Name).Set(success)
		e.checkDuration.WithLabelValues(cr.Name).Set(cr.Duration.Seconds())
	}
}

// WriteTextfile writes the registry in text exposition format to path.
// The write is atomic.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	e.logger.Debug("metrics written", "path", path)
	return nil
}

// Push sends the registry to the Pushgateway at url under job.
func (e *Exporter) Push(ctx context.Context, url, job string) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	if err := push.New(url, job).Gatherer(e.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	e.logger.Info("metrics pushed", "url", url, "job", job)
	return nil
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
