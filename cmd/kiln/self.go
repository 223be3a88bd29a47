// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

func newSelfCommand(a *app) *cobra.Command {
	self := &cobra.Command{
		Use:   "self",
		Short: "Manage the kiln installation itself",
		Long: `Manage the kiln installation itself.

kiln keeps its own binary in the shims directory of its home and can
update or remove itself in place.`,
	}

	self.AddCommand(newSelfCompletionCommand(a))
	self.AddCommand(newSelfUpdateCommand(a))
	self.AddCommand(newSelfInstallCommand(a))
	self.AddCommand(newSelfUninstallCommand(a))

	return self
}
