// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetHomeDir points the platform's home variable (USERPROFILE on Windows,
// HOME elsewhere) at dir and returns a function restoring the old value.
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		return MustSetenv(t, "USERPROFILE", dir)
	default:
		return MustSetenv(t, "HOME", dir)
	}
}

// IsolateHome gives the test a fresh KILN_HOME with first-run installation
// disabled and returns its path. The directory itself is not created.
func IsolateHome(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "kiln-home")
	t.Setenv("KILN_HOME", root)
	t.Setenv("KILN_NO_AUTO_INSTALL", "1")
	t.Setenv("KILN_TOOLCHAIN", "")
	t.Cleanup(SetHomeDir(t, t.TempDir()))
	return root
}
