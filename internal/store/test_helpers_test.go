package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/migsmoke/internal/harness"
	"github.com/roach88/migsmoke/internal/testutil"
)

// createTestStore creates a file-backed store with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDs("run").Generate))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult builds a result with the given check outcomes.
// An empty error string means the check passed.
func createTestResult(startedAt time.Time, errs ...string) *harness.Result {
	r := harness.NewResult("Migration Test Suite", startedAt)
	for i, e := range errs {
		r.Add(harness.CheckResult{
			Seq:      i + 1,
			Name:     checkName(i),
			Pass:     e == "",
			Error:    e,
			Duration: time.Duration(i+1) * time.Millisecond,
		})
	}
	r.Duration = time.Duration(len(errs)+1) * time.Millisecond
	return r
}

func checkName(i int) string {
	names := []string{"Checksum address conversion", "Wei conversion", "Database libraries", "HTTP libraries"}
	return names[i%len(names)]
}

var baseTime = testutil.Epoch
