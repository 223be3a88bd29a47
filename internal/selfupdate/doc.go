// SPDX-License-Identifier: MPL-2.0

// Package selfupdate replaces the running kiln binary with a newer one.
//
// An update resolves the release asset for the host, downloads it together
// with its optional .sha256 sidecar, verifies the digest, decodes the payload
// into a private temp directory and swaps it over the running executable.
// Shims are then re-synchronized with the new binary. Building from a git
// ref with the Go toolchain is supported as an alternative source.
//
// Files:
//   - client.go: HTTP access to release assets and the releases API
//   - asset.go: release asset naming and URLs
//   - checksum.go: sidecar parsing and SHA-256 verification
//   - decode.go: gzip/zstd payload decoding into a PendingUpdate
//   - source.go: building a binary from a tag or revision
//   - replace.go: staging and swapping the executable
//   - detect.go: install method detection for managed installs
//   - selfupdate.go: the Updater tying the above together
package selfupdate
