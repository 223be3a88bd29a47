// SPDX-License-Identifier: MPL-2.0

// Package platform captures the filesystem behaviours that differ between
// Unix-like systems and Windows when a program manages its own executable:
// how shims are linked, whether a running binary can be renamed over, and
// how a file that is still executing gets deleted.
//
// Both variants are plain values so either strategy can be exercised on any
// host; Current picks the one matching runtime.GOOS.
package platform
