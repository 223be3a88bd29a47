// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilnhq/kiln/internal/platform"
)

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

// ResolveExecutable returns the absolute, symlink-free path of the running
// binary. Callers resolve it before touching the filesystem so a later
// rename cannot change what "the running executable" refers to.
func ResolveExecutable() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}
	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", p, err)
	}
	return resolved, nil
}

// Replace installs the file at replacement as target. The content is first
// staged next to target with target's permissions, so the final swap is a
// rename within one directory. If anything fails before the swap completes,
// target is unchanged and the staged file is removed.
func Replace(ops platform.Ops, target, replacement string) (err error) {
	mode := fs.FileMode(0o755)
	if info, statErr := os.Stat(target); statErr == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", target, statErr)
	}

	staged, err := stage(filepath.Dir(target), replacement, mode)
	if err != nil {
		return err
	}

	swapped := false
	defer func() {
		if !swapped {
			_ = os.Remove(staged)
		}
	}()

	if err := ops.Swap(staged, target); err != nil {
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	swapped = true
	return nil
}

func stage(dir, src string, mode fs.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, ".kiln-staged-*")
	if err != nil {
		return "", fmt.Errorf("creating staging file in %s: %w", dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := platform.CopyExecutable(src, name); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("staging replacement: %w", err)
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	return name, nil
}
