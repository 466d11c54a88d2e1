package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/roach88/migsmoke/internal/config"
	"github.com/roach88/migsmoke/internal/harness"
	"github.com/roach88/migsmoke/internal/testutil"
)

// cliRun captures one command execution.
type cliRun struct {
	stdout string
	stderr string
	err    error
}

func (r cliRun) exitCode() int {
	return GetExitCode(r.err)
}

// execute runs the root command with register as the suite.
func execute(t *testing.T, register func(*harness.Harness, *config.Config), args ...string) cliRun {
	t.Helper()
	return executeContext(t, context.Background(), register, args...)
}

// executeContext is execute with a caller-supplied command context.
func executeContext(t *testing.T, ctx context.Context, register func(*harness.Harness, *config.Config), args ...string) cliRun {
	t.Helper()

	noColor := false
	opts := &RootOptions{
		Register: register,
		Clock:    testutil.NewDeterministicClock(),
		Color:    &noColor,
	}
	cmd := NewRootCommandWithOptions(opts)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func passingSuite(h *harness.Harness, _ *config.Config) {
	h.Register("go-ethereum module version", func(ctx context.Context) error {
		harness.Notef(ctx, "(v1.15.11)")
		return nil
	})
	h.Register("Checksum address conversion", func(context.Context) error { return nil })
}

func mixedSuite(h *harness.Harness, _ *config.Config) {
	h.Register("go-ethereum module version", func(ctx context.Context) error {
		harness.Notef(ctx, "(v1.15.11)")
		return nil
	})
	h.Register("Checksum address conversion", func(context.Context) error {
		return errors.New("checksum mismatch")
	})
	h.Register("Wei conversion", func(context.Context) error { return nil })
	h.Register("Solana library import", func(context.Context) error {
		panic("solana exploded")
	})
}
