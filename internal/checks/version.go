package checks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/mod/semver"

	"github.com/roach88/migsmoke/internal/harness"
)

// GethModulePath is the module whose linked version ModuleVersion inspects by default.
const GethModulePath = "github.com/ethereum/go-ethereum"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// ModuleVersion verifies that module path is linked into the running binary
// at minVersion or later. The linked version is attached as a note once it
// satisfies the minimum.
func ModuleVersion(path, minVersion string) harness.Procedure {
	return func(ctx context.Context) error {
		version, err := linkedVersion(path)
		if err != nil {
			return err
		}
		if !semver.IsValid(version) {
			return fmt.Errorf("%s has non-semantic version %q", path, version)
		}
		if semver.Compare(version, minVersion) < 0 {
			return fmt.Errorf("expected %s %s+, got %s", path, minVersion, version)
		}

		harness.Notef(ctx, "(%s)", version)
		return nil
	}
}

// linkedVersion looks path up in the binary's build info, honouring replace directives.
func linkedVersion(path string) (string, error) {
	info, ok := readBuildInfo()
	if !ok {
		return "", errors.New("build info unavailable: binary was built without module support")
	}

	if info.Main.Path == path {
		return info.Main.Version, nil
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version, nil
		}
		return dep.Version, nil
	}
	return "", fmt.Errorf("module %s is not linked into this binary", path)
}
