package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/migsmoke/internal/testutil"
)

// recordingReporter captures reporter events as flat strings.
type recordingReporter struct {
	events []string
}

func (r *recordingReporter) Header(title string) { r.events = append(r.events, "header:"+title) }
func (r *recordingReporter) Start(name string) { r.events = append(r.events, "start:"+name) }
func (r *recordingReporter) Pass(name, note string) {
	r.events = append(r.events, "pass:"+name+note)
}
func (r *recordingReporter) Fail(name, note, message string) {
	r.events = append(r.events, "fail:"+name+":"+message)
}
func (r *recordingReporter) Summary(passed, failed int) {
	r.events = append(r.events, fmt.Sprintf("summary:%d/%d", passed, failed))
}

func passing(context.Context) error { return nil }

func failing(msg string) Procedure {
	return func(context.Context) error { return errors.New(msg) }
}

func TestRun_NoChecks(t *testing.T) {
	h := New("empty")

	result := h.Run(context.Background())

	require.NotNil(t, result)
	assert.True(t, result.Pass)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Checks)
}

func TestRun_SinglePassingCheck(t *testing.T) {
	h := New("suite")
	h.Register("ok", passing)

	result := h.Run(context.Background())

	assert.True(t, result.Pass)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Checks, 1)
	assert.Equal(t, "ok", result.Checks[0].Name)
	assert.Empty(t, result.Checks[0].Error)
}

func TestRun_SingleFailingCheck(t *testing.T) {
	h := New("suite")
	h.Register("explodes", failing("boom"))

	result := h.Run(context.Background())

	assert.False(t, result.Pass)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Checks, 1)
	assert.False(t, result.Checks[0].Pass)
	assert.Equal(t, "boom", result.Checks[0].Error)
}

func TestRun_FailureIsolation(t *testing.T) {
	var executed []string
	record := func(name string, err error) Procedure {
		return func(context.Context) error {
			executed = append(executed, name)
			return err
		}
	}

	rep := &recordingReporter{}
	h := New("suite", WithReporter(rep))
	h.Register("first", record("first", nil))
	h.Register("second", record("second", errors.New("boom")))
	h.Register("third", record("third", nil))

	result := h.Run(context.Background())

	assert.Equal(t, []string{"first", "second", "third"}, executed)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Pass)

	assert.Equal(t, []string{
		"header:suite",
		"start:first",
		"pass:first",
		"start:second",
		"fail:second:boom",
		"start:third",
		"pass:third",
		"summary:2/1",
	}, rep.events)
}

func TestRun_ExecutesInRegistrationOrder(t *testing.T) {
	var order []int
	h := New("suite")
	for i := 0; i < 10; i++ {
		h.Register(fmt.Sprintf("check-%d", i), func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	result := h.Run(context.Background())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
	for i, cr := range result.Checks {
		assert.Equal(t, i+1, cr.Seq)
		assert.Equal(t, fmt.Sprintf("check-%d", i), cr.Name)
	}
}

func TestRun_CountInvariant(t *testing.T) {
	h := New("suite")
	for i := 0; i < 7; i++ {
		if i%3 == 0 {
			h.Register(fmt.Sprintf("f%d", i), failing("nope"))
		} else {
			h.Register(fmt.Sprintf("p%d", i), passing)
		}
	}

	result := h.Run(context.Background())

	assert.Equal(t, 7, result.Passed+result.Failed)
	assert.Equal(t, 7, result.Total())
	assert.Len(t, result.Checks, 7)
	assert.Equal(t, 3, result.Failed)
	assert.Len(t, result.Failures(), 3)
}

func TestRun_PanicIsCheckFailure(t *testing.T) {
	ranAfter := false
	h := New("suite")
	h.Register("panics", func(context.Context) error {
		panic("kaboom")
	})
	h.Register("after", func(context.Context) error {
		ranAfter = true
		return nil
	})

	result := h.Run(context.Background())

	assert.True(t, ranAfter)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "panic: kaboom", result.Checks[0].Error)
}

func TestRun_NilProcedureIsCheckFailure(t *testing.T) {
	h := New("suite")
	h.Register("nil", nil)

	result := h.Run(context.Background())

	assert.Equal(t, 1, result.Failed)
	assert.True(t, strings.HasPrefix(result.Checks[0].Error, "panic: "))
}

func TestRun_DuplicateNamesAllowed(t *testing.T) {
	rep := &recordingReporter{}
	h := New("suite", WithReporter(rep))
	h.Register("same", passing)
	h.Register("same", failing("second copy"))

	result := h.Run(context.Background())

	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, rep.events, "pass:same")
	assert.Contains(t, rep.events, "fail:same:second copy")
}

func TestRun_CountersResetBetweenRuns(t *testing.T) {
	h := New("suite")
	h.Register("ok", passing)
	h.Register("bad", failing("boom"))

	first := h.Run(context.Background())
	second := h.Run(context.Background())

	assert.Equal(t, 1, first.Passed)
	assert.Equal(t, 1, first.Failed)
	assert.Equal(t, 1, second.Passed)
	assert.Equal(t, 1, second.Failed)
	assert.Len(t, second.Checks, 2)
}

func TestRun_ForwardsContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	var seen any
	h := New("suite")
	h.Register("ctx", func(ctx context.Context) error {
		seen = ctx.Value(ctxKey{})
		return nil
	})
	h.Run(ctx)

	assert.Equal(t, "value", seen)
}

func TestRun_Notes(t *testing.T) {
	h := New("suite")
	h.Register("noted", func(ctx context.Context) error {
		Notef(ctx, "(v%s)", "1.15.11")
		Notef(ctx, "[%d]", 2)
		return nil
	})
	h.Register("plain", passing)

	result := h.Run(context.Background())

	assert.Equal(t, "(v1.15.11) [2]", result.Checks[0].Note)
	assert.Empty(t, result.Checks[1].Note)
}

func TestNotef_OutsideCheckIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Notef(context.Background(), "ignored %d", 1)
	})
}

func TestRun_DeterministicDurations(t *testing.T) {
	clock := testutil.NewDeterministicClock()
	h := New("suite", WithClock(clock))
	h.Register("a", passing)
	h.Register("b", passing)

	result := h.Run(context.Background())

	assert.Equal(t, testutil.Epoch.Add(testutil.DefaultStep), result.StartedAt)
	assert.Equal(t, testutil.DefaultStep, result.Checks[0].Duration)
	assert.Equal(t, testutil.DefaultStep, result.Checks[1].Duration)
	// start + 2 readings per check + end
	assert.Equal(t, 5*testutil.DefaultStep, result.Duration)
}

func TestRun_LogsOutcomes(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := New("suite", WithLogger(logger))
	h.Register("ok", passing)
	h.Register("bad", failing("boom"))
	h.Run(context.Background())

	out := buf.String()
	assert.Contains(t, out, "check started")
	assert.Contains(t, out, "check passed")
	assert.Contains(t, out, "check failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "suite finished")
}

func TestChecks_ReturnsCopy(t *testing.T) {
	h := New("suite")
	h.Register("a", passing)

	checks := h.Checks()
	checks[0].Name = "mutated"

	assert.Equal(t, "a", h.Checks()[0].Name)
	assert.Equal(t, 1, h.Len())
}

func TestSubset(t *testing.T) {
	rep := &recordingReporter{}
	h := New("suite", WithReporter(rep))
	h.Register("eth: address", passing)
	h.Register("db: sqlite", passing)
	h.Register("eth: signing", passing)

	sub := h.Subset(func(c Check) bool { return strings.HasPrefix(c.Name, "eth:") })

	assert.Equal(t, 3, h.Len())
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, "suite", sub.Title())

	result := sub.Run(context.Background())
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, "header:suite", rep.events[0])
}

func TestCheckFailure(t *testing.T) {
	cause := errors.New("root cause")
	err := error(&CheckFailure{Name: "x", Err: cause})

	assert.Equal(t, "root cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCheckFailure(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsCheckFailure(cause))
	assert.Equal(t, "check failed", (&CheckFailure{Name: "x"}).Error())
}

func TestInvoke_DoesNotDoubleWrap(t *testing.T) {
	inner := &CheckFailure{Name: "inner", Err: errors.New("already wrapped")}
	err := invoke(context.Background(), Check{Name: "outer", Procedure: func(context.Context) error {
		return inner
	}})

	assert.Same(t, inner, err)
}
