// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/shims"
)

const runtimeFile = "runtime.toml"

type (
	// Bootstrapper makes sure kiln's internal runtime exists.
	Bootstrapper interface {
		EnsureRuntime(ctx context.Context) (string, error)
	}

	// RuntimeRecord describes the internal runtime in self/runtime.toml.
	RuntimeRecord struct {
		KilnVersion string    `toml:"kiln_version"`
		Toolchain   string    `toml:"toolchain,omitempty"`
		CoreShims   []string  `toml:"core_shims"`
		CreatedAt   time.Time `toml:"created_at"`
	}

	// DirBootstrapper materializes the runtime as the self/ directory plus
	// the core shims that route interpreter calls through kiln.
	DirBootstrapper struct {
		Home        apphome.Home
		Ops         platform.Ops
		KilnVersion string
		CoreShims   []string
		Registrar   *FileRegistrar
		Logger      *log.Logger
	}
)

// EnsureRuntime creates or refreshes self/ and the core shims and returns
// the runtime directory. It is idempotent.
func (b *DirBootstrapper) EnsureRuntime(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := b.Home.SelfDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating runtime directory %s: %w", dir, err)
	}

	rec := b.readRecord()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.KilnVersion = b.KilnVersion
	rec.CoreShims = b.CoreShims
	if tc, ok := b.selfToolchain(); ok {
		rec.Toolchain = tc.String()
	}

	data, err := toml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding runtime record: %w", err)
	}
	path := filepath.Join(dir, runtimeFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	primary := b.Home.PrimaryShim(b.Ops.ExeSuffix())
	if err := shims.EnsureCore(b.Ops, b.Home.ShimsDir(), primary, b.CoreShims, b.Logger); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadRuntime loads self/runtime.toml from home.
func ReadRuntime(home apphome.Home) (RuntimeRecord, error) {
	var rec RuntimeRecord
	data, err := os.ReadFile(filepath.Join(home.SelfDir(), runtimeFile))
	if err != nil {
		return rec, err
	}
	if err := toml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding runtime record: %w", err)
	}
	return rec, nil
}

// readRecord returns the existing record, or a zero one when it is missing
// or unreadable.
func (b *DirBootstrapper) readRecord() RuntimeRecord {
	rec, err := ReadRuntime(b.Home)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && b.Logger != nil {
			b.Logger.Warn("replacing unreadable runtime record", "err", err)
		}
		return RuntimeRecord{}
	}
	return rec
}

func (b *DirBootstrapper) selfToolchain() (Version, bool) {
	if b.Registrar == nil {
		return Version{}, false
	}
	recs, err := b.Registrar.List()
	if err != nil {
		return Version{}, false
	}
	for _, r := range recs {
		if IsSelfCompatible(r.Version) {
			return r.Version, true
		}
	}
	return Version{}, false
}
