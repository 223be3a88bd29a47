// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/platform"
)

func TestDirBootstrapper_EnsureRuntime(t *testing.T) {
	t.Parallel()

	home := apphome.At(t.TempDir())
	ops := platform.UnixLike{Links: platform.LinkHard}
	if err := os.MkdirAll(home.ShimsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(home.PrimaryShim(""), []byte("kiln"), 0o755); err != nil {
		t.Fatal(err)
	}

	reg := newTestRegistrar(t, "Python 3.12.1")
	reg.Dir = home.PyDir()
	if _, err := reg.Register(context.Background(), fakeInterpreter(t), ValidateSelfToolchain); err != nil {
		t.Fatal(err)
	}

	b := &DirBootstrapper{
		Home:        home,
		Ops:         ops,
		KilnVersion: "1.2.3",
		CoreShims:   []string{"python", "python3"},
		Registrar:   reg,
	}

	for range 2 {
		dir, err := b.EnsureRuntime(context.Background())
		if err != nil {
			t.Fatalf("EnsureRuntime() error = %v", err)
		}
		if dir != home.SelfDir() {
			t.Errorf("EnsureRuntime() = %q, want %q", dir, home.SelfDir())
		}
	}

	rec, err := ReadRuntime(home)
	if err != nil {
		t.Fatal(err)
	}
	if rec.KilnVersion != "1.2.3" || rec.Toolchain != "cpython@3.12.1" || rec.CreatedAt.IsZero() {
		t.Errorf("runtime record = %+v", rec)
	}

	entries, err := os.ReadDir(home.ShimsDir())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"kiln", "python", "python3"}) {
		t.Errorf("shims = %v", names)
	}
	data, err := os.ReadFile(filepath.Join(home.ShimsDir(), "python"))
	if err != nil || string(data) != "kiln" {
		t.Errorf("python shim = %q, %v", data, err)
	}
}

func TestDirBootstrapper_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &DirBootstrapper{Home: apphome.At(t.TempDir()), Ops: platform.UnixLike{}}
	if _, err := b.EnsureRuntime(ctx); err == nil {
		t.Error("EnsureRuntime() with a cancelled context succeeded")
	}
}

func TestDirBootstrapper_CoreShimNamedLikePrimary(t *testing.T) {
	t.Parallel()

	home := apphome.At(t.TempDir())
	if err := os.MkdirAll(home.ShimsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	primary := home.PrimaryShim("")
	if err := os.WriteFile(primary, []byte("kiln"), 0o755); err != nil {
		t.Fatal(err)
	}

	b := &DirBootstrapper{
		Home:      home,
		Ops:       platform.UnixLike{Links: platform.LinkHard},
		CoreShims: []string{"python", "kiln"},
	}
	if _, err := b.EnsureRuntime(context.Background()); err != nil {
		t.Fatalf("EnsureRuntime() error = %v", err)
	}

	data, err := os.ReadFile(primary)
	if err != nil || string(data) != "kiln" {
		t.Fatalf("primary = %q, %v", data, err)
	}
	if data, err := os.ReadFile(filepath.Join(home.ShimsDir(), "python")); err != nil || string(data) != "kiln" {
		t.Errorf("python shim = %q, %v", data, err)
	}
}
