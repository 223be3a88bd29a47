// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"testing"

	"github.com/kilnhq/kiln/internal/platform"
)

func TestResolveAsset(t *testing.T) {
	t.Parallel()

	const base = "https://github.com/kilnhq/kiln/"

	tests := []struct {
		name    string
		version string
		goarch  string
		goos    string
		wantURL string
	}{
		{
			name:    "latest linux",
			goarch:  "amd64",
			goos:    "linux",
			wantURL: "https://github.com/kilnhq/kiln/releases/latest/download/kiln-x86_64-linux.gz",
		},
		{
			name:    "pinned macos arm",
			version: "0.4.0",
			goarch:  "arm64",
			goos:    "darwin",
			wantURL: "https://github.com/kilnhq/kiln/releases/download/0.4.0/kiln-aarch64-macos.gz",
		},
		{
			name:    "explicit latest windows",
			version: LatestVersion,
			goarch:  "386",
			goos:    "windows",
			wantURL: "https://github.com/kilnhq/kiln/releases/latest/download/kiln-x86-windows.exe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ResolveAsset(base, tt.version, tt.goarch, tt.goos, platform.ForOS(tt.goos))
			if err != nil {
				t.Fatalf("ResolveAsset() error = %v", err)
			}
			if a.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", a.URL, tt.wantURL)
			}
			if a.ChecksumURL != tt.wantURL+".sha256" {
				t.Errorf("ChecksumURL = %q", a.ChecksumURL)
			}
		})
	}
}

func TestResolveAsset_Unsupported(t *testing.T) {
	t.Parallel()

	if _, err := ResolveAsset(DefaultReleaseURL, "", "riscv64", "linux", platform.ForOS("linux")); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("unsupported arch: error = %v", err)
	}
	if _, err := ResolveAsset(DefaultReleaseURL, "", "amd64", "plan9", platform.ForOS("plan9")); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("unsupported os: error = %v", err)
	}
}

func TestRepoFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		owner, repo string
		ok          bool
	}{
		{"https://github.com/kilnhq/kiln", "kilnhq", "kiln", true},
		{"https://github.com/acme/kiln-fork/", "acme", "kiln-fork", true},
		{"https://github.com/acme/kiln.git", "acme", "kiln", true},
		{"https://mirror.example.com/kilnhq/kiln", "", "", false},
		{"https://github.com/kilnhq", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := RepoFromURL(tt.in)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("RepoFromURL(%q) = %q, %q, %v", tt.in, owner, repo, ok)
		}
	}
}
