// Package harness runs an ordered suite of named checks and reports the outcome.
//
// A Harness owns a registry of checks. Register appends to it; Run executes
// every check exactly once, in registration order, and returns a Result with
// the pass/fail tally.
//
// # Failure Isolation
//
// A check fails when its procedure returns a non-nil error or panics. Either
// way the failure is captured at the invocation site and becomes a
// *CheckFailure carrying the underlying message. The run then moves on to the
// next check. Nothing a check does can abort the run.
//
// # Report Format
//
// The text reporter prints a fixed layout:
//
//	============================================================
//	Go Module Migration Test Suite
//	============================================================
//
//	Testing: Checksum address conversion... ✓ PASS
//	Testing: Database libraries... ✗ FAIL
//	  Error: sql: unknown driver "sqlserver"
//
//	============================================================
//	Results: 1 passed, 1 failed
//	============================================================
//
// A procedure may attach a short note to its progress line with Notef; the
// note is printed before the marker.
//
// # Repeated Runs
//
// Counters live on the Result, not on the Harness, so every Run starts from
// zero. Calling Run twice produces two independent results.
//
// # Usage
//
//	h := harness.New("Go Module Migration Test Suite",
//	    harness.WithReporter(harness.NewTextReporter(os.Stdout, true)),
//	)
//	h.Register("Checksum address conversion", func(ctx context.Context) error {
//	    ...
//	})
//	if result := h.Run(ctx); !result.Pass {
//	    os.Exit(1)
//	}
package harness
