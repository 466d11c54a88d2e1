package harness

import (
	"context"
	"errors"
	"time"
)

// Procedure is the body of a check. A nil return means the check passed.
type Procedure func(ctx context.Context) error

// Check is a named unit of verification.
type Check struct {
	Name      string
	Procedure Procedure
}

// CheckFailure is the single error kind produced by a failed check.
// It wraps whatever the procedure returned (or the recovered panic value).
type CheckFailure struct {
	Name string
	Err  error
}

func (e *CheckFailure) Error() string {
	if e.Err == nil {
		return "check failed"
	}
	return e.Err.Error()
}

func (e *CheckFailure) Unwrap() error {
	return e.Err
}

// IsCheckFailure reports whether err is or wraps a *CheckFailure.
func IsCheckFailure(err error) bool {
	var cf *CheckFailure
	return errors.As(err, &cf)
}

// CheckResult is the outcome of a single check within a run.
type CheckResult struct {
	Seq      int           `json:"seq" yaml:"seq"`
	Name     string        `json:"name" yaml:"name"`
	Pass     bool          `json:"pass" yaml:"pass"`
	Note     string        `json:"note,omitempty" yaml:"note,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Result is the outcome of a run.
type Result struct {
	Title string `json:"title" yaml:"title"`

	// Pass is true iff Failed is zero.
	Pass bool `json:"pass" yaml:"pass"`

	Passed int `json:"passed" yaml:"passed"`
	Failed int `json:"failed" yaml:"failed"`

	// Checks holds one entry per executed check, in execution order.
	Checks []CheckResult `json:"checks" yaml:"checks"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// NewResult creates an empty passing result.
func NewResult(title string, startedAt time.Time) *Result {
	return &Result{
		Title:     title,
		Pass:      true,
		Checks:    []CheckResult{},
		StartedAt: startedAt,
	}
}

// Add records a check outcome and updates the tally.
func (r *Result) Add(cr CheckResult) {
	r.Checks = append(r.Checks, cr)
	if cr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
	r.Pass = r.Failed == 0
}

// Total returns the number of executed checks.
func (r *Result) Total() int {
	return r.Passed + r.Failed
}

// Failures returns the failed checks in execution order.
func (r *Result) Failures() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}
