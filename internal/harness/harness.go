package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/roach88/migsmoke/internal/harness"

// Clock supplies wall time for check durations.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Harness holds the ordered check registry and the collaborators used to run it.
//
// A Harness is not safe for concurrent use. Register all checks before calling Run.
type Harness struct {
	title    string
	checks   []Check
	reporter Reporter
	logger   *slog.Logger
	clock    Clock
	tracer   trace.Tracer
}

// Option configures a Harness.
type Option func(*Harness)

// WithReporter sets the progress reporter. The default reporter prints nothing.
func WithReporter(r Reporter) Option {
	return func(h *Harness) {
		if r != nil {
			h.reporter = r
		}
	}
}

// WithLogger sets the structured logger. The default logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides the wall clock (for deterministic durations in tests).
func WithClock(c Clock) Option {
	return func(h *Harness) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithTracer overrides the tracer used for per-check spans.
func WithTracer(t trace.Tracer) Option {
	return func(h *Harness) {
		if t != nil {
			h.tracer = t
		}
	}
}

// New creates an empty harness.
func New(title string, opts ...Option) *Harness {
	h := &Harness{
		title:    title,
		checks:   []Check{},
		reporter: NopReporter{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    systemClock{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Title returns the suite title printed in the report header.
func (h *Harness) Title() string {
	return h.title
}

// Register appends a check to the registry. Duplicate names are allowed.
func (h *Harness) Register(name string, proc Procedure) {
	h.checks = append(h.checks, Check{Name: name, Procedure: proc})
}

// Checks returns a copy of the registry in execution order.
func (h *Harness) Checks() []Check {
	out := make([]Check, len(h.checks))
	copy(out, h.checks)
	return out
}

// Len returns the number of registered checks.
func (h *Harness) Len() int {
	return len(h.checks)
}

// Subset returns a harness sharing this harness's title and collaborators
// but holding only the checks for which keep returns true, in the same order.
func (h *Harness) Subset(keep func(Check) bool) *Harness {
	sub := *h
	sub.checks = make([]Check, 0, len(h.checks))
	for _, c := range h.checks {
		if keep(c) {
			sub.checks = append(sub.checks, c)
		}
	}
	return &sub
}

// Run executes every registered check once, in registration order.
//
// Failures are isolated per check: an error or panic in one procedure is
// recorded and reported, and execution continues with the next check.
// Counters start from zero on every call.
func (h *Harness) Run(ctx context.Context) *Result {
	result := NewResult(h.title, h.clock.Now())

	h.logger.Info("suite starting", "title", h.title, "checks", len(h.checks))
	h.reporter.Header(h.title)

	for i, c := range h.checks {
		seq := i + 1
		h.reporter.Start(c.Name)
		h.logger.Debug("check started", "check", c.Name, "seq", seq)

		cr := h.runCheck(ctx, seq, c)
		result.Add(cr)

		if cr.Pass {
			h.reporter.Pass(c.Name, cr.Note)
			h.logger.Debug("check passed", "check", c.Name, "seq", seq, "duration", cr.Duration)
		} else {
			h.reporter.Fail(c.Name, cr.Note, cr.Error)
			h.logger.Warn("check failed", "check", c.Name, "seq", seq, "duration", cr.Duration, "error", cr.Error)
		}
	}

	result.Duration = h.clock.Now().Sub(result.StartedAt)
	h.reporter.Summary(result.Passed, result.Failed)
	h.logger.Info("suite finished",
		"passed", result.Passed,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return result
}

// runCheck invokes one check inside its own span and note scope.
func (h *Harness) runCheck(ctx context.Context, seq int, c Check) CheckResult {
	notes := &noteSink{}
	ctx = context.WithValue(ctx, noteKey{}, notes)

	ctx, span := h.tracer.Start(ctx, "check "+c.Name, trace.WithAttributes(
		attribute.String("check.name", c.Name),
		attribute.Int("check.seq", seq),
	))
	defer span.End()

	start := h.clock.Now()
	err := invoke(ctx, c)
	cr := CheckResult{
		Seq:      seq,
		Name:     c.Name,
		Pass:     err == nil,
		Note:     notes.String(),
		Duration: h.clock.Now().Sub(start),
	}
	if err != nil {
		cr.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, cr.Error)
	}
	return cr
}

// invoke is the only place a procedure is called. Any returned error or
// panic leaves here as a *CheckFailure.
func invoke(ctx context.Context, c Check) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CheckFailure{Name: c.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if procErr := c.Procedure(ctx); procErr != nil {
		if cf, ok := procErr.(*CheckFailure); ok {
			return cf
		}
		return &CheckFailure{Name: c.Name, Err: procErr}
	}
	return nil
}

type noteKey struct{}

type noteSink struct {
	notes []string
}

func (n *noteSink) String() string {
	return strings.Join(n.notes, " ")
}

// Notef attaches a short note to the running check's progress line,
// e.g. the version of a library under test. Outside a check it is a no-op.
func Notef(ctx context.Context, format string, args ...any) {
	sink, ok := ctx.Value(noteKey{}).(*noteSink)
	if !ok {
		return
	}
	sink.notes = append(sink.notes, fmt.Sprintf(format, args...))
}
