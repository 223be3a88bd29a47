// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/kilnhq/kiln/internal/apphome"
)

// RenderEnvFile returns the POSIX shell snippet that puts the shims
// directory on PATH exactly once per shell. A custom home is exported as
// KILN_HOME and referenced through it; the default home is written relative
// to $HOME so the file survives a moved home directory.
func RenderEnvFile(h apphome.Home) (string, error) {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# kiln shell setup\n")

	shims := `$HOME/.kiln/shims`
	if h.Custom {
		quoted, err := syntax.Quote(h.Root, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quoting %s: %w", h.Root, err)
		}
		fmt.Fprintf(&b, "export %s=%s\n", apphome.EnvHome, quoted)
		shims = "${" + apphome.EnvHome + "}/shims"
	}

	fmt.Fprintf(&b, `case ":${PATH}:" in
  *:"%[1]s":*)
    ;;
  *)
    export PATH="%[1]s:$PATH"
    ;;
esac
`, shims)

	return b.String(), nil
}
