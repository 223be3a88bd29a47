// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// LinkSymlink shims point at the primary binary and never need rewriting.
	LinkSymlink LinkKind = iota
	// LinkHard shims are hard links, or full copies when linking fails, and
	// must be recreated whenever the primary binary changes.
	LinkHard
)

const (
	// CleanupDirName holds binaries that were renamed aside while running.
	CleanupDirName = ".kiln-cleanup"

	// OSWindows and friends are the values of runtime.GOOS this package
	// distinguishes.
	OSWindows = "windows"
	OSDarwin  = "darwin"
	OSLinux   = "linux"
)

type (
	// LinkKind is how a shim refers to the primary binary.
	LinkKind int

	// Ops is the set of OS-dependent operations used by install, update and
	// uninstall.
	Ops interface {
		// Name is a short identifier used in messages ("unix", "windows").
		Name() string
		// ExeSuffix is appended to executable names (".exe" or "").
		ExeSuffix() string
		// ReleaseSuffix is appended to release asset names.
		ReleaseSuffix() string
		// ShimLink reports how shims are materialized.
		ShimLink() LinkKind
		// NeedsEnvFile reports whether install writes a sourceable env file.
		NeedsEnvFile() bool
		// LinkShim makes shim refer to primary, replacing whatever was there.
		LinkShim(primary, shim string) error
		// Swap moves staged over target, which may be the running executable.
		// On failure target is left as it was.
		Swap(staged, target string) error
		// RemoveRunning deletes exe, a running executable located inside
		// root, which is about to be removed as a whole.
		RemoveRunning(exe, root string) error
	}

	// UnixLike covers Linux, macOS and the BSDs. Renaming over a running
	// binary is safe because the process keeps its open inode.
	UnixLike struct {
		Links LinkKind
	}

	// Windows cannot overwrite or delete an executing image but can rename
	// it, so replacements rename the old file aside and delete it later.
	Windows struct{}
)

var (
	_ Ops = UnixLike{}
	_ Ops = Windows{}
)

// Current returns the Ops for the host operating system.
func Current() Ops {
	return ForOS(runtime.GOOS)
}

// ForOS returns the Ops for the named GOOS. Linux uses hard-linked shims,
// every other Unix uses symlinks.
func ForOS(goos string) Ops {
	switch goos {
	case OSWindows:
		return Windows{}
	case OSLinux:
		return UnixLike{Links: LinkHard}
	default:
		return UnixLike{Links: LinkSymlink}
	}
}

func (UnixLike) Name() string          { return "unix" }
func (UnixLike) ExeSuffix() string     { return "" }
func (UnixLike) ReleaseSuffix() string { return ".gz" }
func (UnixLike) NeedsEnvFile() bool    { return true }

func (u UnixLike) ShimLink() LinkKind { return u.Links }

// LinkShim creates shim as a symlink or hard link to primary.
func (u UnixLike) LinkShim(primary, shim string) error {
	if err := removeIfExists(shim); err != nil {
		return err
	}
	if u.Links == LinkSymlink {
		return os.Symlink(primary, shim)
	}
	return hardLinkOrCopy(primary, shim)
}

// Swap is a single rename within one directory.
func (UnixLike) Swap(staged, target string) error {
	return os.Rename(staged, target)
}

// RemoveRunning unlinks exe; the running process keeps its mapping.
func (UnixLike) RemoveRunning(exe, _ string) error {
	return os.Remove(exe)
}

func (Windows) Name() string          { return "windows" }
func (Windows) ExeSuffix() string     { return ".exe" }
func (Windows) ReleaseSuffix() string { return ".exe" }
func (Windows) ShimLink() LinkKind    { return LinkHard }
func (Windows) NeedsEnvFile() bool    { return false }

// LinkShim hard links shim to primary, copying when the volume refuses.
func (Windows) LinkShim(primary, shim string) error {
	if err := removeIfExists(shim); err != nil {
		return err
	}
	return hardLinkOrCopy(primary, shim)
}

// Swap renames target into the cleanup directory next to it, then renames
// staged into place. If the second rename fails the original is restored.
// The displaced binary is scheduled for deletion.
func (Windows) Swap(staged, target string) error {
	aside := ""
	if _, err := os.Lstat(target); err == nil {
		aside, err = asidePath(filepath.Join(filepath.Dir(target), CleanupDirName), filepath.Base(target))
		if err != nil {
			return err
		}
		if err := os.Rename(target, aside); err != nil {
			return fmt.Errorf("moving %s aside: %w", target, err)
		}
	}

	if err := os.Rename(staged, target); err != nil {
		if aside != "" {
			if restoreErr := os.Rename(aside, target); restoreErr != nil {
				return fmt.Errorf("installing %s: %w (restoring original also failed: %v)", target, err, restoreErr)
			}
		}
		return fmt.Errorf("installing %s: %w", target, err)
	}

	if aside != "" {
		_ = ScheduleDelete(aside) // swept on a later run otherwise
	}
	return nil
}

// RemoveRunning moves exe out of root so root can be deleted, then schedules
// the moved file for deletion once the process has exited.
func (Windows) RemoveRunning(exe, root string) error {
	parent := filepath.Dir(filepath.Clean(root))
	dest, err := asidePath(parent, "."+filepath.Base(exe))
	if err != nil {
		return err
	}
	if err := os.Rename(exe, dest); err != nil {
		return fmt.Errorf("moving running executable out of %s: %w", root, err)
	}
	if err := ScheduleDelete(dest); err != nil {
		return fmt.Errorf("scheduling deletion of %s: %w", dest, err)
	}
	return nil
}

// SweepCleanup deletes leftovers from earlier Windows swaps in dir. Entries
// that are still locked stay for the next run.
func SweepCleanup(dir string) {
	cleanup := filepath.Join(dir, CleanupDirName)
	entries, err := os.ReadDir(cleanup)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(cleanup, e.Name()))
	}
	_ = os.Remove(cleanup) // only succeeds when empty
}

// IsCleanupEntry reports whether name is internal bookkeeping in a shims
// directory rather than a shim.
func IsCleanupEntry(name string) bool {
	return name == CleanupDirName || strings.HasPrefix(name, ".")
}

func asidePath(dir, base string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, base+".*.old")
	if err != nil {
		return "", fmt.Errorf("reserving name in %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	// os.Rename over an existing file fails on Windows.
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale %s: %w", path, err)
	}
	return nil
}

func hardLinkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return CopyExecutable(src, dst)
}

// CopyExecutable copies src to dst with mode 0755, flushing before close.
func CopyExecutable(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Sync()
}

// SupportsSymlinks probes whether the current user may create symlinks in
// dir. Windows only grants this with developer mode or elevation.
func SupportsSymlinks(dir string) bool {
	probe, err := os.MkdirTemp(dir, ".kiln-symlink-probe-*")
	if err != nil {
		return false
	}
	defer func() { _ = os.RemoveAll(probe) }()

	return os.Symlink(probe, filepath.Join(probe, "link")) == nil
}
