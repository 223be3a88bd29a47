// SPDX-License-Identifier: MPL-2.0

// Package shims keeps the executables in the shims directory consistent with
// the primary kiln binary.
package shims

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kilnhq/kiln/internal/platform"
)

// Report lists what Sync did with each entry it looked at.
type Report struct {
	Updated []string
	Skipped []string
	Failed  map[string]error
}

// OK reports whether every relink succeeded.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Sync recreates every copy or hard-link shim in dir from primary. Symlinks,
// directories, dot-files and the primary itself are left alone. A missing dir
// is not an error. Failures on individual entries are logged and collected
// in the report; only an unreadable dir is returned as an error.
func Sync(ops platform.Ops, dir, primary string, logger *log.Logger) (Report, error) {
	logger = orDiscard(logger)
	report := Report{Failed: map[string]error{}}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("reading shims directory %s: %w", dir, err)
	}

	primaryInfo, _ := os.Stat(primary) //nolint:errcheck // nil info disables the SameFile check

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)

		if skip := skipReason(e, path, primary, primaryInfo); skip != "" {
			logger.Debug("shim left alone", "name", name, "reason", skip)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if err := ops.LinkShim(primary, path); err != nil {
			logger.Warn("could not update shim", "name", name, "err", err)
			report.Failed[name] = err
			continue
		}
		logger.Debug("shim updated", "name", name)
		report.Updated = append(report.Updated, name)
	}

	return report, nil
}

func skipReason(e fs.DirEntry, path, primary string, primaryInfo fs.FileInfo) string {
	switch {
	case e.IsDir():
		return "directory"
	case platform.IsCleanupEntry(e.Name()):
		return "hidden"
	case e.Type()&fs.ModeSymlink != 0:
		return "symlink"
	case filepath.Clean(path) == filepath.Clean(primary):
		return "primary"
	}
	if primaryInfo != nil {
		if info, err := e.Info(); err == nil && os.SameFile(info, primaryInfo) {
			return "primary"
		}
	}
	return ""
}

// EnsureCore creates or refreshes the named shims in dir so they resolve to
// primary. Symlink shims already pointing at primary are kept, and a name
// that would resolve to primary itself is skipped.
func EnsureCore(ops platform.Ops, dir, primary string, names []string, logger *log.Logger) error {
	logger = orDiscard(logger)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating shims directory %s: %w", dir, err)
	}

	for _, name := range names {
		path := filepath.Join(dir, name+ops.ExeSuffix())
		if isPrimary(ops, path, primary) {
			logger.Warn("core shim names the primary binary, skipping", "name", name)
			continue
		}
		if ops.ShimLink() == platform.LinkSymlink {
			if target, err := os.Readlink(path); err == nil && target == primary {
				continue
			}
		}
		if err := ops.LinkShim(primary, path); err != nil {
			return fmt.Errorf("creating shim %s: %w", path, err)
		}
		logger.Debug("core shim ready", "name", name)
	}
	return nil
}

// isPrimary compares paths the way the platform's filesystem does.
func isPrimary(ops platform.Ops, path, primary string) bool {
	a, b := filepath.Clean(path), filepath.Clean(primary)
	if ops.Name() == platform.OSWindows {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func orDiscard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}
