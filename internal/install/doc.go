// SPDX-License-Identifier: MPL-2.0

// Package install places kiln into its application directory.
//
// Installer runs a fixed sequence of steps: greet, confirm, place the binary
// in shims/, write the shell env file, optionally register a toolchain,
// bootstrap the internal runtime and report PATH advice. AutoInstall runs
// the same sequence unprompted the first time kiln starts from elsewhere.
package install
