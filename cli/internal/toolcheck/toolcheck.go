// Package toolcheck verifies the external tools a generation run needs:
// the property-list editor used for template merges and a recent enough
// IDE.
package toolcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"
)

var (
	ErrToolMissing = errors.New("property list editor not found")
	ErrIDETooOld   = errors.New("IDE version is older than required")
)

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands on the host.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Report is the outcome of a check.
type Report struct {
	ToolPath   string
	IDEVersion *version.Version
	Minimum    *version.Version
}

var ideVersionRE = regexp.MustCompile(`(?m)^Xcode\s+(\S+)`)

// ParseIDEVersion reads the version line of `xcodebuild -version`.
func ParseIDEVersion(out string) (*version.Version, error) {
	m := ideVersionRE.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no version in %q", out)
	}
	return version.NewVersion(m[1])
}

// CheckTool confirms the editor binary exists. Bare names are looked up
// on PATH.
func CheckTool(fs afero.Fs, path string) (string, error) {
	if !filepath.IsAbs(path) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrToolMissing, path)
		}
		return found, nil
	}
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolMissing, path)
	}
	return path, nil
}

// CheckIDE runs `xcodebuild -version` and compares the result against
// minimum. An empty minimum only reports the version.
func CheckIDE(ctx context.Context, run Runner, minimum string) (*Report, error) {
	out, err := run(ctx, "xcodebuild", "-version")
	if err != nil {
		return nil, fmt.Errorf("query IDE version: %w", err)
	}
	v, err := ParseIDEVersion(string(out))
	if err != nil {
		return nil, err
	}
	r := &Report{IDEVersion: v}
	if minimum == "" {
		return r, nil
	}
	floor, err := version.NewVersion(minimum)
	if err != nil {
		return nil, fmt.Errorf("minimum IDE version: %w", err)
	}
	r.Minimum = floor
	if v.LessThan(floor) {
		return r, fmt.Errorf("%w: %s < %s", ErrIDETooOld, v, floor)
	}
	return r, nil
}
