// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the payload digest differs from the sidecar.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrMalformedSidecar indicates a sidecar without a leading SHA-256 hex digest.
	ErrMalformedSidecar = errors.New("malformed checksum file")
)

// ChecksumError reports a failed verification. It wraps ErrChecksumMismatch.
type ChecksumError struct {
	Filename string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseSidecar extracts the digest from a .sha256 file. The digest is the
// first whitespace-separated field; anything after it, usually a filename,
// is ignored.
func ParseSidecar(data []byte) (string, error) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 || !isValidHexHash(fields[0]) {
		return "", ErrMalformedSidecar
	}
	return strings.ToLower(fields[0]), nil
}

// HashBytes returns the lowercase hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyBytes compares the digest of payload with expected, ignoring case.
func VerifyBytes(name string, payload []byte, expected string) error {
	got := HashBytes(payload)
	if !strings.EqualFold(got, expected) {
		return &ChecksumError{Filename: name, Expected: strings.ToLower(expected), Got: got}
	}
	return nil
}

func isValidHexHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
