// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxBinaryBytes caps a decoded executable (500 MB) against decompression bombs.
const maxBinaryBytes = 500 << 20

// ErrPayloadTooLarge is returned when a decoded payload exceeds maxBinaryBytes.
var ErrPayloadTooLarge = errors.New("decoded payload too large")

type (
	// Decoder turns a downloaded payload into an executable image.
	Decoder func(payload []byte) (io.ReadCloser, error)

	// PendingUpdate is a decoded executable waiting to be installed. It lives
	// in a private temp directory removed by Cleanup.
	PendingUpdate struct {
		Path string
		dir  string
	}
)

// DecoderFor picks a decoder from the asset file name suffix. Anything that
// is neither .gz nor .zst is taken to be a raw executable.
func DecoderFor(name string) Decoder {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return decodeGzip
	case strings.HasSuffix(name, ".zst"):
		return decodeZstd
	default:
		return decodeIdentity
	}
}

func decodeGzip(payload []byte) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	return zr, nil
}

func decodeZstd(payload []byte) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	return zr.IOReadCloser(), nil
}

func decodeIdentity(payload []byte) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(payload)), nil
}

// Decode writes the decoded payload to a new executable file named
// binaryName in a fresh temp directory.
func Decode(payload []byte, dec Decoder, binaryName string) (_ *PendingUpdate, err error) {
	r, err := dec(payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }() // decoder close errors carry nothing new

	p, err := newPending(binaryName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			p.Cleanup()
		}
	}()

	if err := writeLimited(p.Path, r); err != nil {
		return nil, err
	}
	return p, nil
}

func newPending(binaryName string) (*PendingUpdate, error) {
	dir, err := os.MkdirTemp("", "kiln-update-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	return &PendingUpdate{Path: filepath.Join(dir, binaryName), dir: dir}, nil
}

func writeLimited(path string, r io.Reader) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o755)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(f, io.LimitReader(r, maxBinaryBytes+1))
	if err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	if n > maxBinaryBytes {
		return ErrPayloadTooLarge
	}
	if n == 0 {
		return errors.New("decoding payload: empty executable")
	}
	return nil
}

// Cleanup removes the temp directory. Safe to call more than once.
func (p *PendingUpdate) Cleanup() {
	if p == nil || p.dir == "" {
		return
	}
	_ = os.RemoveAll(p.dir)
	p.dir = ""
}
