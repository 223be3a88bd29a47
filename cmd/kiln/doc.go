// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the kiln CLI.
//
// The root command resolves the application directory, loads config.cue and
// builds the logger before any subcommand runs. Commands outside "self"
// trigger a first-run installation unless KILN_NO_AUTO_INSTALL=1. The "self"
// group installs, updates, uninstalls and generates completions for kiln.
package cmd
