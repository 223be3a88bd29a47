// SPDX-License-Identifier: MPL-2.0

// Package config loads kiln's settings using Viper with CUE as the file format.
//
// Configuration lives in <home>/config.cue, validated against the embedded
// config_schema.cue (#Config). Values merge over built-in defaults, and the
// KILN_NO_AUTO_INSTALL and KILN_TOOLCHAIN environment variables override the
// file. A missing file is not an error.
package config
