// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kiln %s\n", getVersionString())
			if a.verbose {
				fmt.Fprintf(out, "platform: %s\n", platformString())
				fmt.Fprintf(out, "home:     %s\n", a.home.Root)
				if a.cfgPath != "" {
					fmt.Fprintf(out, "config:   %s\n", a.cfgPath)
				}
			}
			return nil
		}),
	}
}
