// SPDX-License-Identifier: MPL-2.0

package uninstall

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/issue"
	"github.com/kilnhq/kiln/internal/platform"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

// installed lays out a populated application directory.
func installed(t *testing.T) apphome.Home {
	t.Helper()
	h := apphome.At(t.TempDir())
	mustWrite(t, h.PrimaryShim(""), "kiln")
	mustWrite(t, filepath.Join(h.ShimsDir(), "python"), "kiln")
	mustWrite(t, filepath.Join(h.SelfDir(), "runtime.toml"), "x")
	mustWrite(t, filepath.Join(h.PyDir(), "cpython@3.12.1.toml"), "x")
	mustWrite(t, filepath.Join(h.PipToolsDir(), "black", "bin"), "x")
	mustWrite(t, h.EnvFile(), "export PATH=...\n")
	mustWrite(t, h.ConfigFile(), "ui: verbose: true\n")
	return h
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestUninstaller_Run(t *testing.T) {
	t.Parallel()

	for _, ops := range []platform.Ops{platform.UnixLike{Links: platform.LinkHard}, platform.Windows{}} {
		t.Run(ops.Name(), func(t *testing.T) {
			t.Parallel()

			h := installed(t)
			running := h.PrimaryShim("")
			var out bytes.Buffer
			u := &Uninstaller{
				Home:       h,
				Ops:        ops,
				Stdout:     &out,
				Executable: func() (string, error) { return running, nil },
			}

			if err := u.Run(context.Background(), true); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			for _, gone := range []string{h.ShimsDir(), h.SelfDir(), h.PyDir(), h.PipToolsDir()} {
				if exists(gone) {
					t.Errorf("%s still exists", gone)
				}
			}
			if !exists(h.ConfigFile()) {
				t.Error("config.cue removed")
			}
			if info, err := os.Stat(h.EnvFile()); err != nil || info.Size() != 0 {
				t.Errorf("env file not truncated: %v, %v", info, err)
			}
			if !strings.Contains(out.String(), "Done!") {
				t.Errorf("output:\n%s", out.String())
			}
		})
	}
}

func TestUninstaller_Declined(t *testing.T) {
	t.Parallel()

	h := installed(t)
	asked := false
	u := &Uninstaller{
		Home: h,
		Ops:  platform.UnixLike{},
		Confirm: func(string) (bool, error) {
			asked = true
			return false, nil
		},
		Executable: func() (string, error) { return h.PrimaryShim(""), nil },
	}

	err := u.Run(context.Background(), false)
	if q, ok := issue.AsQuietExit(err); !ok || q.Code != 1 {
		t.Fatalf("Run() error = %v, want QuietExit(1)", err)
	}
	if !asked {
		t.Error("confirmation not requested")
	}
	for _, kept := range []string{h.PrimaryShim(""), h.SelfDir(), h.PyDir(), h.PipToolsDir()} {
		if !exists(kept) {
			t.Errorf("%s removed after decline", kept)
		}
	}
	if info, _ := os.Stat(h.EnvFile()); info == nil || info.Size() == 0 {
		t.Error("env file truncated after decline")
	}
}

func TestUninstaller_MissingHome(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	u := &Uninstaller{
		Home:       apphome.At(filepath.Join(t.TempDir(), "never")),
		Ops:        platform.UnixLike{},
		Stdout:     &out,
		Executable: func() (string, error) { return "", errors.New("unknown") },
	}
	if err := u.Run(context.Background(), true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Done!") || !strings.Contains(out.String(), "env file") {
		t.Errorf("output:\n%s", out.String())
	}
}

type stuckOps struct{ platform.Windows }

func (stuckOps) RemoveRunning(string, string) error { return errors.New("access denied") }

func TestUninstaller_RunningBinaryStuck(t *testing.T) {
	t.Parallel()

	h := installed(t)
	// Make shim removal skip the binary so RemoveRunning is reached.
	running := filepath.Join(h.ShimsDir(), "bin", "kiln")
	mustWrite(t, running, "kiln")
	u := &Uninstaller{
		Home:       h,
		Ops:        stuckOps{},
		Executable: func() (string, error) { return running, nil },
	}

	err := u.Run(context.Background(), true)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Resource != running {
		t.Fatalf("Run() error = %v, want ActionableError for %s", err, running)
	}
}

func TestUninstaller_OutsideBinaryUntouched(t *testing.T) {
	t.Parallel()

	h := installed(t)
	outside := filepath.Join(t.TempDir(), "kiln")
	mustWrite(t, outside, "kiln")
	u := &Uninstaller{
		Home:       h,
		Ops:        platform.UnixLike{},
		Executable: func() (string, error) { return outside, nil },
	}
	if err := u.Run(context.Background(), true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !exists(outside) {
		t.Error("binary outside the home was removed")
	}
}

func TestUninstaller_ResolvesExecutableBeforeRemoving(t *testing.T) {
	t.Parallel()

	h := installed(t)
	primary := h.PrimaryShim("")
	var intactAtResolve bool
	u := &Uninstaller{
		Home: h,
		Ops:  platform.UnixLike{Links: platform.LinkHard},
		Executable: func() (string, error) {
			intactAtResolve = exists(primary) && exists(h.SelfDir())
			return filepath.EvalSymlinks(primary)
		},
	}

	if err := u.Run(context.Background(), true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !intactAtResolve {
		t.Error("running executable resolved after removal started")
	}
	if exists(h.ShimsDir()) {
		t.Error("shims directory still exists")
	}
}

type recordingOps struct {
	platform.UnixLike
	removed *[]string
}

func (o recordingOps) RemoveRunning(exe, root string) error {
	*o.removed = append(*o.removed, exe)
	return o.UnixLike.RemoveRunning(exe, root)
}

func TestUninstaller_RemovesSurvivingRunningBinary(t *testing.T) {
	t.Parallel()

	h := installed(t)
	// A binary nested below shims/ survives removeShimEntries.
	running := filepath.Join(h.ShimsDir(), "bin", "kiln")
	mustWrite(t, running, "kiln")
	var removed []string
	u := &Uninstaller{
		Home:       h,
		Ops:        recordingOps{removed: &removed},
		Executable: func() (string, error) { return filepath.EvalSymlinks(running) },
	}

	if err := u.Run(context.Background(), true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(removed) != 1 || filepath.Base(removed[0]) != "kiln" {
		t.Errorf("RemoveRunning calls = %v", removed)
	}
	if exists(running) {
		t.Error("running binary still exists")
	}
}
