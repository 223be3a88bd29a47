// SPDX-License-Identifier: MPL-2.0

package uninstall

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/install"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/testutil"
	"github.com/kilnhq/kiln/internal/toolchain"
)

func layout(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(out)
	return out
}

func TestUninstallThenInstall_SameLayout(t *testing.T) {
	t.Parallel()

	home := apphome.At(filepath.Join(t.TempDir(), "home"))
	ops := platform.UnixLike{Links: platform.LinkHard}
	src := testutil.WriteExecutable(t, filepath.Join(t.TempDir(), "kiln"), "kiln 1.0.0")
	exe := func() (string, error) { return src, nil }

	newInstaller := func() *install.Installer {
		return &install.Installer{
			Home:    home,
			Ops:     ops,
			Version: "1.0.0",
			Bootstrapper: &toolchain.DirBootstrapper{
				Home:        home,
				Ops:         ops,
				KilnVersion: "1.0.0",
				CoreShims:   []string{"python", "python3"},
			},
			Stdout:     io.Discard,
			Stderr:     io.Discard,
			Executable: exe,
			Getenv:     func(string) string { return "" },
		}
	}

	ctx := context.Background()
	if err := newInstaller().Run(ctx, install.Options{Mode: install.ModeNoPrompts}); err != nil {
		t.Fatalf("first install: %v", err)
	}
	fresh := layout(t, home.Root)

	u := &Uninstaller{Home: home, Ops: ops, Stdout: io.Discard, Stderr: io.Discard, Executable: exe}
	if err := u.Run(ctx, true); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if got := testutil.ListDir(t, home.ShimsDir()); got != nil {
		t.Fatalf("shims left behind: %v", got)
	}

	if err := newInstaller().Run(ctx, install.Options{Mode: install.ModeNoPrompts}); err != nil {
		t.Fatalf("second install: %v", err)
	}
	if again := layout(t, home.Root); !slices.Equal(fresh, again) {
		t.Errorf("layout after reinstall differs\nfresh: %v\nagain: %v", fresh, again)
	}
	if got := testutil.MustReadFile(t, filepath.Join(home.ShimsDir(), "python3")); got != "kiln 1.0.0" {
		t.Errorf("python3 shim = %q", got)
	}
}
