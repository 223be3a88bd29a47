// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript run this test binary as the "kiln" command.
func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"kiln": Execute,
	})
}

// TestScripts runs the CLI scripts in testdata/script. Each script gets its
// own KILN_HOME under $WORK with first-run installation disabled; scripts
// that exercise it clear KILN_NO_AUTO_INSTALL themselves.
func TestScripts(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			userHome := filepath.Join(env.WorkDir, "userhome")
			if err := os.MkdirAll(userHome, 0o755); err != nil {
				return err
			}
			env.Setenv("HOME", userHome)
			env.Setenv("USERPROFILE", userHome)
			env.Setenv("KILN_HOME", filepath.Join(env.WorkDir, "kiln"))
			env.Setenv("KILN_NO_AUTO_INSTALL", "1")
			env.Setenv("KILN_TOOLCHAIN", "")
			env.Setenv("GITHUB_TOKEN", "")
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		ContinueOnError: true,
	})
}
