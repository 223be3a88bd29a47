// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/kilnhq/kiln/internal/tui"
	"github.com/kilnhq/kiln/internal/uninstall"

	"github.com/spf13/cobra"
)

func newSelfUninstallCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove kiln and everything it manages",
		Long: `Remove kiln and everything it manages.

Shims, the self-managed runtime, registered toolchains and tool environments
are deleted. config.cue is kept, and the env file is emptied so shell
profiles that source it keep working.`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			u := &uninstall.Uninstaller{
				Home:    a.home,
				Ops:     a.ops,
				Confirm: tui.Confirmer(cmd.Context(), a.promptConfig(cmd)),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
				Logger:  a.logger,
			}
			return u.Run(cmd.Context(), yes)
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
