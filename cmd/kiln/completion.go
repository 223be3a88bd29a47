// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// newSelfCompletionCommand creates the `kiln self completion` command.
func newSelfCompletionCommand(a *app) *cobra.Command {
	var shell string

	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for kiln.

` + SubtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(kiln self completion --shell bash)"

` + SubtitleStyle.Render("Zsh:") + `
  kiln self completion --shell zsh > "${fpath[1]}/_kiln"

` + SubtitleStyle.Render("Fish:") + `
  kiln self completion --shell fish > ~/.config/fish/completions/kiln.fish

` + SubtitleStyle.Render("PowerShell:") + `
  kiln self completion --shell powershell >> $PROFILE
`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			return writeCompletion(cmd.Root(), cmd.OutOrStdout(), shell)
		}),
	}

	cmd.Flags().StringVarP(&shell, "shell", "s", "bash", "shell to generate completions for (bash, zsh, fish, powershell)")
	_ = cmd.RegisterFlagCompletionFunc("shell", cobra.FixedCompletions(completionShells, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func writeCompletion(root *cobra.Command, w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q (want one of %v)", shell, completionShells)
}
