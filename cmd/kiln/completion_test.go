// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteCompletion(t *testing.T) {
	t.Parallel()

	root := newRootCommand(newApp())
	want := map[string]string{
		"bash":       "bash completion V2 for kiln",
		"zsh":        "#compdef kiln",
		"fish":       "complete -c kiln",
		"powershell": "Register-ArgumentCompleter",
	}
	for _, shell := range completionShells {
		var buf bytes.Buffer
		if err := writeCompletion(root, &buf, shell); err != nil {
			t.Fatalf("writeCompletion(%s): %v", shell, err)
		}
		if !strings.Contains(buf.String(), want[shell]) {
			t.Errorf("%s completion missing %q", shell, want[shell])
		}
	}

	if err := writeCompletion(root, &bytes.Buffer{}, "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}
