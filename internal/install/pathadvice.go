// SPDX-License-Identifier: MPL-2.0

package install

import (
	"os"
	"path/filepath"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/platform"
)

// PathAdvice is what the installer tells the user about PATH.
type PathAdvice struct {
	OnPath bool
	Lines  []string
}

// AdvisePath checks whether the shims directory is already one of the
// entries in pathEnv and, if not, explains how to add it. It only reads.
func AdvisePath(h apphome.Home, ops platform.Ops, pathEnv, shell string) PathAdvice {
	if onPath(h.ShimsDir(), pathEnv) {
		return PathAdvice{OnPath: true}
	}

	if !ops.NeedsEnvFile() {
		return PathAdvice{Lines: []string{
			"Note: the shims folder is not on PATH yet. Add this folder to PATH manually:",
			"  " + h.ShimsDir(),
			"(System Properties > Environment Variables, then restart your terminal)",
		}}
	}

	lines := []string{
		"The kiln shims directory is not on PATH. Add this to your shell profile (e.g. ~/.profile):",
		"",
		`  source "` + h.DisplayPath("env") + `"`,
	}
	if filepath.Base(shell) == "fish" {
		lines = append(lines,
			"",
			"For fish, run this once instead:",
			"",
			`  set -Ua fish_user_paths "`+h.DisplayPath("shims")+`"`,
		)
	}
	lines = append(lines, "", "Restart your shell afterwards.")
	return PathAdvice{Lines: lines}
}

func onPath(dir, pathEnv string) bool {
	want, err := os.Stat(dir)
	if err != nil {
		return false
	}
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == "" {
			continue
		}
		if info, err := os.Stat(entry); err == nil && os.SameFile(info, want) {
			return true
		}
	}
	return false
}
