// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Validator decides whether a probed toolchain may be registered.
	Validator func(Version) error

	// Registrar registers an interpreter at a path and returns its version.
	Registrar interface {
		Register(ctx context.Context, path string, validate Validator) (Version, error)
	}

	// Record is what FileRegistrar persists for each toolchain.
	Record struct {
		Version      Version   `toml:"version"`
		Path         string    `toml:"path"`
		RegisteredAt time.Time `toml:"registered_at"`
	}

	// FileRegistrar stores one TOML record per toolchain in Dir.
	FileRegistrar struct {
		Dir   string
		probe func(ctx context.Context, path string) (string, error)
		now   func() time.Time
	}
)

// NewFileRegistrar returns a registrar writing into dir (the py/ directory).
func NewFileRegistrar(dir string) *FileRegistrar {
	return &FileRegistrar{Dir: dir, probe: probeInterpreter, now: time.Now}
}

// Register probes path, validates the result and records it. Registering
// the same version again replaces the earlier record.
func (r *FileRegistrar) Register(ctx context.Context, path string, validate Validator) (Version, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Version{}, fmt.Errorf("resolving toolchain path %s: %w", path, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return Version{}, fmt.Errorf("toolchain %s: %w", abs, err)
	} else if info.IsDir() {
		return Version{}, fmt.Errorf("toolchain %s is a directory", abs)
	}

	out, err := r.probe(ctx, abs)
	if err != nil {
		return Version{}, fmt.Errorf("probing toolchain %s: %w", abs, err)
	}
	v, err := parseProbeOutput(out)
	if err != nil {
		return Version{}, err
	}

	if validate != nil {
		if err := validate(v); err != nil {
			return Version{}, err
		}
	}

	rec := Record{Version: v, Path: abs, RegisteredAt: r.now().UTC()}
	data, err := toml.Marshal(rec)
	if err != nil {
		return Version{}, fmt.Errorf("encoding toolchain record: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return Version{}, fmt.Errorf("creating %s: %w", r.Dir, err)
	}
	dest := filepath.Join(r.Dir, v.String()+".toml")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Version{}, fmt.Errorf("writing %s: %w", dest, err)
	}
	return v, nil
}

// List returns all readable records in Dir, newest version first.
func (r *FileRegistrar) List() ([]Record, error) {
	entries, err := os.ReadDir(r.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Dir, err)
	}

	var recs []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.Dir, e.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := toml.Unmarshal(data, &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
	}

	slices.SortFunc(recs, func(a, b Record) int {
		if c := b.Version.Major - a.Version.Major; c != 0 {
			return c
		}
		if c := b.Version.Minor - a.Version.Minor; c != 0 {
			return c
		}
		return b.Version.Patch - a.Version.Patch
	})
	return recs, nil
}

func probeInterpreter(ctx context.Context, path string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}
