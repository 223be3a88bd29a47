// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func TestForOS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos       string
		wantName   string
		wantLink   LinkKind
		wantSuffix string
		wantEnv    bool
	}{
		{OSLinux, "unix", LinkHard, ".gz", true},
		{OSDarwin, "unix", LinkSymlink, ".gz", true},
		{"freebsd", "unix", LinkSymlink, ".gz", true},
		{OSWindows, "windows", LinkHard, ".exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()
			ops := ForOS(tt.goos)
			if ops.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", ops.Name(), tt.wantName)
			}
			if ops.ShimLink() != tt.wantLink {
				t.Errorf("ShimLink() = %v, want %v", ops.ShimLink(), tt.wantLink)
			}
			if ops.ReleaseSuffix() != tt.wantSuffix {
				t.Errorf("ReleaseSuffix() = %q, want %q", ops.ReleaseSuffix(), tt.wantSuffix)
			}
			if ops.NeedsEnvFile() != tt.wantEnv {
				t.Errorf("NeedsEnvFile() = %v, want %v", ops.NeedsEnvFile(), tt.wantEnv)
			}
		})
	}
}

func TestUnixLike_LinkShim_Hard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	primary := filepath.Join(dir, "kiln")
	shim := filepath.Join(dir, "python")
	writeFile(t, primary, []byte("new"))
	writeFile(t, shim, []byte("stale"))

	if err := (UnixLike{Links: LinkHard}).LinkShim(primary, shim); err != nil {
		t.Fatalf("LinkShim() error = %v", err)
	}
	if got := readFile(t, shim); !bytes.Equal(got, []byte("new")) {
		t.Errorf("shim content = %q, want %q", got, "new")
	}
}

func TestUnixLike_LinkShim_Symlink(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == OSWindows {
		t.Skip("symlinks need developer mode on Windows")
	}

	dir := t.TempDir()
	primary := filepath.Join(dir, "kiln")
	shim := filepath.Join(dir, "python3")
	writeFile(t, primary, []byte("bin"))

	if err := (UnixLike{Links: LinkSymlink}).LinkShim(primary, shim); err != nil {
		t.Fatalf("LinkShim() error = %v", err)
	}
	target, err := os.Readlink(shim)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != primary {
		t.Errorf("symlink target = %q, want %q", target, primary)
	}
}

func TestUnixLike_Swap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "kiln")
	staged := filepath.Join(dir, ".kiln-staged")
	writeFile(t, target, []byte("old"))
	writeFile(t, staged, []byte("new"))

	if err := (UnixLike{}).Swap(staged, target); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if got := readFile(t, target); string(got) != "new" {
		t.Errorf("target = %q, want new", got)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file still present: %v", err)
	}
}

func TestWindows_Swap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "kiln.exe")
	staged := filepath.Join(dir, ".kiln-staged")
	writeFile(t, target, []byte("old"))
	writeFile(t, staged, []byte("new"))

	if err := (Windows{}).Swap(staged, target); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if got := readFile(t, target); string(got) != "new" {
		t.Errorf("target = %q, want new", got)
	}

	SweepCleanup(dir)
	if _, err := os.Stat(filepath.Join(dir, CleanupDirName)); !os.IsNotExist(err) {
		t.Errorf("cleanup dir not swept: %v", err)
	}
}

func TestWindows_Swap_RestoresOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "kiln.exe")
	writeFile(t, target, []byte("old"))

	err := (Windows{}).Swap(filepath.Join(dir, "missing"), target)
	if err == nil {
		t.Fatal("Swap() with a missing staged file succeeded")
	}
	if got := readFile(t, target); string(got) != "old" {
		t.Errorf("target = %q after failed swap, want old", got)
	}
}

func TestRemoveRunning(t *testing.T) {
	t.Parallel()

	for _, ops := range []Ops{UnixLike{}, Windows{}} {
		t.Run(ops.Name(), func(t *testing.T) {
			t.Parallel()

			root := filepath.Join(t.TempDir(), ".kiln")
			shims := filepath.Join(root, "shims")
			if err := os.MkdirAll(shims, 0o755); err != nil {
				t.Fatal(err)
			}
			exe := filepath.Join(shims, "kiln"+ops.ExeSuffix())
			writeFile(t, exe, []byte("bin"))

			if err := ops.RemoveRunning(exe, root); err != nil {
				t.Fatalf("RemoveRunning() error = %v", err)
			}
			if _, err := os.Stat(exe); !os.IsNotExist(err) {
				t.Errorf("executable still inside root: %v", err)
			}
			if err := os.RemoveAll(root); err != nil {
				t.Errorf("root not removable afterwards: %v", err)
			}
		})
	}
}

func TestCopyExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, []byte("payload"))

	if err := CopyExecutable(src, dst); err != nil {
		t.Fatalf("CopyExecutable() error = %v", err)
	}
	if got := readFile(t, dst); string(got) != "payload" {
		t.Errorf("dst = %q", got)
	}
	if runtime.GOOS != OSWindows {
		info, err := os.Stat(dst)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Errorf("dst mode %v is not executable", info.Mode())
		}
	}

	if err := CopyExecutable(filepath.Join(dir, "nope"), filepath.Join(dir, "x")); err == nil {
		t.Error("CopyExecutable() of a missing source succeeded")
	}
}

func TestIsCleanupEntry(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		CleanupDirName: true,
		".hidden":      true,
		"python":       false,
		"kiln.exe":     false,
	} {
		if got := IsCleanupEntry(name); got != want {
			t.Errorf("IsCleanupEntry(%q) = %v, want %v", name, got, want)
		}
	}
}
