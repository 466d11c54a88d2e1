package checks

import (
	"context"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/migsmoke/internal/harness"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withDeps(deps ...*debug.Module) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/roach88/migsmoke", Version: "(devel)"},
		Deps: deps,
	}
}

// runOne runs a single procedure through a harness so notes are captured.
func runOne(proc harness.Procedure) harness.CheckResult {
	h := harness.New("version")
	h.Register(NameModuleVersion, proc)
	return h.Run(context.Background()).Checks[0]
}

func TestModuleVersion(t *testing.T) {
	tests := []struct {
		name     string
		info     *debug.BuildInfo
		ok       bool
		wantPass bool
		wantNote string
		wantErr  string
	}{
		{
			name:     "current version",
			info:     withDeps(&debug.Module{Path: GethModulePath, Version: "v1.15.11"}),
			ok:       true,
			wantPass: true,
			wantNote: "(v1.15.11)",
		},
		{
			name:     "exact minimum",
			info:     withDeps(&debug.Module{Path: GethModulePath, Version: "v1.15.0"}),
			ok:       true,
			wantPass: true,
			wantNote: "(v1.15.0)",
		},
		{
			name:     "too old",
			info:     withDeps(&debug.Module{Path: GethModulePath, Version: "v1.13.15"}),
			ok:       true,
			wantErr:  "expected github.com/ethereum/go-ethereum v1.15.0+, got v1.13.15",
		},
		{
			name: "replace wins",
			info: withDeps(&debug.Module{
				Path:    GethModulePath,
				Version: "v1.13.0",
				Replace: &debug.Module{Path: "example.com/geth-fork", Version: "v1.16.1"},
			}),
			ok:       true,
			wantPass: true,
			wantNote: "(v1.16.1)",
		},
		{
			name:     "non-semantic version",
			info:     withDeps(&debug.Module{Path: GethModulePath, Version: "(devel)"}),
			ok:       true,
			wantErr:  "non-semantic version",
		},
		{
			name:    "not linked",
			info:    withDeps(&debug.Module{Path: "github.com/holiman/uint256", Version: "v1.3.2"}),
			ok:      true,
			wantErr: "is not linked into this binary",
		},
		{
			name:    "no build info",
			ok:      false,
			wantErr: "build info unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBuildInfo(t, tt.info, tt.ok)

			cr := runOne(ModuleVersion(GethModulePath, "v1.15.0"))

			assert.Equal(t, tt.wantPass, cr.Pass)
			assert.Equal(t, tt.wantNote, cr.Note)
			if tt.wantErr == "" {
				assert.Empty(t, cr.Error)
			} else {
				assert.Contains(t, cr.Error, tt.wantErr)
			}
		})
	}
}

func TestLinkedVersion_MainModule(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Path: GethModulePath, Version: "v1.15.11"},
	}, true)

	version, err := linkedVersion(GethModulePath)
	require.NoError(t, err)
	assert.Equal(t, "v1.15.11", version)
}
