// SPDX-License-Identifier: MPL-2.0

// Package toolchain implements the two collaborators install depends on:
// registering an external interpreter and bootstrapping kiln's internal
// runtime directory. Both persist small TOML records under the application
// directory.
package toolchain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// KindCPython is the only interpreter kind kiln runs itself on.
const KindCPython = "cpython"

var (
	// ErrIncompatibleToolchain rejects a toolchain unusable for kiln itself.
	ErrIncompatibleToolchain = errors.New("toolchain not supported for internal use")

	// ErrUnrecognized is returned when a probe's output names no version.
	ErrUnrecognized = errors.New("unrecognized interpreter version output")

	//nolint:gochecknoglobals // compiled once
	pythonVersionRE = regexp.MustCompile(`Python (\d+)\.(\d+)\.(\d+)`)
)

// Version identifies a registered interpreter, e.g. cpython@3.12.1.
type Version struct {
	Kind  string `toml:"kind"`
	Major int    `toml:"major"`
	Minor int    `toml:"minor"`
	Patch int    `toml:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%s@%d.%d.%d", v.Kind, v.Major, v.Minor, v.Patch)
}

// ParseVersion reads the "kind@X.Y.Z" form produced by String.
func ParseVersion(s string) (Version, error) {
	kind, rest, ok := strings.Cut(s, "@")
	if !ok || kind == "" {
		return Version{}, fmt.Errorf("parsing toolchain version %q: missing kind", s)
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("parsing toolchain version %q: want X.Y.Z", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("parsing toolchain version %q: %w", s, err)
		}
		nums[i] = n
	}
	return Version{Kind: kind, Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// parseProbeOutput interprets `<interpreter> --version` output.
func parseProbeOutput(out string) (Version, error) {
	m := pythonVersionRE.FindStringSubmatch(out)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrUnrecognized, strings.TrimSpace(out))
	}
	v := Version{Kind: KindCPython}
	if strings.Contains(out, "PyPy") {
		v.Kind = "pypy"
	}
	v.Major, _ = strconv.Atoi(m[1]) //nolint:errcheck // regexp guarantees digits
	v.Minor, _ = strconv.Atoi(m[2]) //nolint:errcheck // regexp guarantees digits
	v.Patch, _ = strconv.Atoi(m[3]) //nolint:errcheck // regexp guarantees digits
	return v, nil
}

// IsSelfCompatible reports whether kiln can run its own tooling on v:
// CPython 3.9 or newer within major version 3.
func IsSelfCompatible(v Version) bool {
	return v.Kind == KindCPython && v.Major == 3 && v.Minor >= 9
}

// ValidateSelfToolchain is the predicate install uses when a toolchain is
// supplied explicitly.
func ValidateSelfToolchain(v Version) error {
	if v.Kind != KindCPython {
		return fmt.Errorf("%w: only cpython is supported, got %s", ErrIncompatibleToolchain, v)
	}
	if !IsSelfCompatible(v) {
		return fmt.Errorf("%w: %s is too old, need cpython 3.9 or newer", ErrIncompatibleToolchain, v)
	}
	return nil
}
