// SPDX-License-Identifier: MPL-2.0

// Package apphome locates the per-user application directory and the paths
// inside it. The directory is resolved once at startup and passed around as
// a value.
package apphome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// EnvHome overrides the application directory.
	EnvHome = "KILN_HOME"

	// BinaryName is the primary executable's name without suffix.
	BinaryName = "kiln"

	dirName = ".kiln"
)

// ErrNoHome is returned when neither KILN_HOME nor a user home directory is
// available.
var ErrNoHome = errors.New("cannot determine home directory")

// Home is the resolved application directory.
type Home struct {
	// Root is the absolute directory path.
	Root string
	// Custom is true when Root came from KILN_HOME.
	Custom bool
	// Display is how Root is shown to users and written into the env file:
	// the KILN_HOME value as given, or a $HOME-relative form for the default.
	Display string
}

// Resolve reads KILN_HOME or falls back to ~/.kiln.
func Resolve() (Home, error) {
	return resolve(os.Getenv, os.UserHomeDir, runtime.GOOS)
}

func resolve(getenv func(string) string, userHome func() (string, error), goos string) (Home, error) {
	if v := strings.TrimSpace(getenv(EnvHome)); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return Home{}, fmt.Errorf("resolving %s=%q: %w", EnvHome, v, err)
		}
		return Home{Root: abs, Custom: true, Display: v}, nil
	}

	base, err := userHome()
	if err != nil || base == "" {
		return Home{}, fmt.Errorf("%w: set %s explicitly", ErrNoHome, EnvHome)
	}

	display := "$HOME/" + dirName
	if goos == "windows" {
		display = `%USERPROFILE%\` + dirName
	}
	return Home{Root: filepath.Join(base, dirName), Display: display}, nil
}

// At returns a custom Home rooted at dir.
func At(dir string) Home {
	return Home{Root: dir, Custom: true, Display: dir}
}

func (h Home) ShimsDir() string    { return filepath.Join(h.Root, "shims") }
func (h Home) SelfDir() string     { return filepath.Join(h.Root, "self") }
func (h Home) PyDir() string       { return filepath.Join(h.Root, "py") }
func (h Home) PipToolsDir() string { return filepath.Join(h.Root, "pip-tools") }
func (h Home) EnvFile() string     { return filepath.Join(h.Root, "env") }
func (h Home) ConfigFile() string  { return filepath.Join(h.Root, "config.cue") }

// ShimPath is the path of the shim called name, with the platform suffix.
func (h Home) ShimPath(name, exeSuffix string) string {
	return filepath.Join(h.ShimsDir(), name+exeSuffix)
}

// PrimaryShim is where the installed kiln binary lives.
func (h Home) PrimaryShim(exeSuffix string) string {
	return h.ShimPath(BinaryName, exeSuffix)
}

// DisplayPath joins elems onto Display using the separator users expect.
func (h Home) DisplayPath(elems ...string) string {
	sep := "/"
	if strings.HasPrefix(h.Display, "%") || strings.Contains(h.Display, `\`) {
		sep = `\`
	}
	return strings.Join(append([]string{strings.TrimRight(h.Display, `/\`)}, elems...), sep)
}

// Exists reports whether Root is an existing directory.
func (h Home) Exists() bool {
	info, err := os.Stat(h.Root)
	return err == nil && info.IsDir()
}

// Contains reports whether path lies inside Root after both are made
// canonical. Paths that cannot be canonicalized are not contained.
func (h Home) Contains(path string) bool {
	root, err := filepath.EvalSymlinks(h.Root)
	if err != nil {
		return false
	}
	p, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
