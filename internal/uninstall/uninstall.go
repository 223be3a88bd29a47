// SPDX-License-Identifier: MPL-2.0

// Package uninstall removes kiln's application directory contents while
// leaving user configuration in place.
package uninstall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/issue"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/selfupdate"
)

// Uninstaller removes shims, the runtime, toolchains and tool environments.
// Most removals are best effort; only failing to move the running binary
// out of the way is fatal.
type Uninstaller struct {
	Home    apphome.Home
	Ops     platform.Ops
	Confirm func(title string) (bool, error)
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *log.Logger

	// Executable returns the running binary; nil means the real one.
	Executable func() (string, error)
}

// Run uninstalls. Without yes the user is asked first; declining returns
// an issue.QuietExit with code 1 and removes nothing.
func (u *Uninstaller) Run(ctx context.Context, yes bool) error {
	u.defaults()

	if !yes {
		ok, err := u.Confirm("Do you want to uninstall kiln?")
		if err != nil {
			return fmt.Errorf("asking for confirmation: %w", err)
		}
		if !ok {
			return issue.Cancelled()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if u.Home.Exists() {
		running := u.runningInside()
		u.removeShimEntries()
		for _, dir := range []string{u.Home.SelfDir(), u.Home.PyDir(), u.Home.PipToolsDir()} {
			if err := os.RemoveAll(dir); err != nil {
				u.Logger.Warn("could not remove directory", "path", dir, "err", err)
			}
		}

		if err := u.removeRunning(running); err != nil {
			return err
		}

		if err := os.RemoveAll(u.Home.ShimsDir()); err != nil {
			u.Logger.Warn("could not remove shims directory", "path", u.Home.ShimsDir(), "err", err)
		}
		u.truncateEnvFile()
	}

	fmt.Fprintln(u.Stdout, "Done!")
	fmt.Fprintln(u.Stdout)
	u.printAdvice()
	return nil
}

// removeShimEntries deletes each file directly inside shims/. The running
// binary may refuse on Windows; that is handled by removeRunning.
func (u *Uninstaller) removeShimEntries() {
	dir := u.Home.ShimsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			u.Logger.Warn("could not read shims directory", "path", dir, "err", err)
		}
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			u.Logger.Debug("shim not removed", "path", path, "err", err)
		}
	}
}

// runningInside resolves the running executable and returns it when it lies
// inside the application directory, or "" otherwise. It must run before
// anything is deleted, since a removed path no longer canonicalizes.
func (u *Uninstaller) runningInside() string {
	exe, err := u.Executable()
	if err != nil {
		u.Logger.Debug("running executable unknown", "err", err)
		return ""
	}
	if !u.Home.Contains(exe) {
		return ""
	}
	return exe
}

// removeRunning deletes exe, resolved earlier by runningInside, if it
// survived removeShimEntries.
func (u *Uninstaller) removeRunning(exe string) error {
	if exe == "" {
		return nil
	}
	if _, err := os.Lstat(exe); err != nil {
		return nil //nolint:nilerr // already removed with the other shims
	}
	if err := u.Ops.RemoveRunning(exe, u.Home.Root); err != nil {
		return issue.NewErrorContext().
			WithOperation("remove the running kiln binary").
			WithResource(exe).
			WithSuggestion("Close other kiln processes and run the uninstall again").
			Wrap(err).
			BuildError()
	}
	return nil
}

// truncateEnvFile empties the env file instead of deleting it so shell
// profiles that source it keep working.
func (u *Uninstaller) truncateEnvFile() {
	path := u.Home.EnvFile()
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if err := os.Truncate(path, 0); err != nil {
		u.Logger.Warn("could not truncate env file", "path", path, "err", err)
	}
}

func (u *Uninstaller) printAdvice() {
	if u.Ops.NeedsEnvFile() {
		fmt.Fprintln(u.Stdout, "You might have to manually remove the line that sources the env file")
		fmt.Fprintf(u.Stdout, "(%s) from your shell profile.\n", u.Home.DisplayPath("env"))
		return
	}
	fmt.Fprintln(u.Stdout, "You might have to manually remove the shims folder from PATH:")
	fmt.Fprintf(u.Stdout, "  %s\n", u.Home.ShimsDir())
}

func (u *Uninstaller) defaults() {
	if u.Stdout == nil {
		u.Stdout = io.Discard
	}
	if u.Stderr == nil {
		u.Stderr = io.Discard
	}
	if u.Logger == nil {
		u.Logger = log.New(io.Discard)
	}
	if u.Executable == nil {
		u.Executable = selfupdate.ResolveExecutable
	}
	if u.Confirm == nil {
		u.Confirm = func(string) (bool, error) { return false, nil }
	}
}
