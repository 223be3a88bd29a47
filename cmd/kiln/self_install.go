// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/kilnhq/kiln/internal/install"

	"github.com/spf13/cobra"
)

// newSelfInstallCommand creates the hidden `kiln self install` command. It
// is normally reached through the first-run installation; running it by
// hand repairs or re-places an installation. Only --toolchain registers an
// interpreter here; KILN_TOOLCHAIN applies to first-run installs.
func newSelfInstallCommand(a *app) *cobra.Command {
	var (
		yes           bool
		toolchainPath string
	)

	cmd := &cobra.Command{
		Use:    "install",
		Short:  "Install kiln into its home directory",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			mode := install.ModeDefault
			if yes {
				mode = install.ModeNoPrompts
			}
			return a.newInstaller(cmd).Run(cmd.Context(), install.Options{
				Mode:      mode,
				Toolchain: toolchainPath,
			})
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&toolchainPath, "toolchain", "", "Python interpreter to register for the self-managed runtime")

	return cmd
}
