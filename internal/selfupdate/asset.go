// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kilnhq/kiln/internal/platform"
)

// DefaultReleaseURL is the repository page release downloads hang off.
const DefaultReleaseURL = "https://github.com/kilnhq/kiln"

// LatestVersion selects the newest published release.
const LatestVersion = "latest"

// ErrUnsupportedPlatform is returned for an arch/OS pair with no release.
var ErrUnsupportedPlatform = errors.New("no release asset for this platform")

// Asset identifies one downloadable build. It is immutable once resolved.
type Asset struct {
	Arch        string
	OS          string
	Version     string
	FileName    string
	URL         string
	ChecksumURL string
}

// releaseArch maps GOARCH to the names used in asset filenames.
var releaseArch = map[string]string{ //nolint:gochecknoglobals // lookup table
	"amd64": "x86_64",
	"arm64": "aarch64",
	"386":   "x86",
}

// releaseOS maps GOOS to the names used in asset filenames.
var releaseOS = map[string]string{ //nolint:gochecknoglobals // lookup table
	platform.OSLinux:   "linux",
	platform.OSDarwin:  "macos",
	platform.OSWindows: "windows",
}

// ResolveAsset computes the download and sidecar URLs for goarch/goos at
// version under base. An empty version means LatestVersion.
func ResolveAsset(base, version, goarch, goos string, ops platform.Ops) (Asset, error) {
	arch, ok := releaseArch[goarch]
	if !ok {
		return Asset{}, fmt.Errorf("%w: arch %s", ErrUnsupportedPlatform, goarch)
	}
	osName, ok := releaseOS[goos]
	if !ok {
		return Asset{}, fmt.Errorf("%w: os %s", ErrUnsupportedPlatform, goos)
	}
	if version == "" {
		version = LatestVersion
	}

	file := fmt.Sprintf("kiln-%s-%s%s", arch, osName, ops.ReleaseSuffix())
	base = strings.TrimRight(base, "/")

	var u string
	if version == LatestVersion {
		u = fmt.Sprintf("%s/releases/latest/download/%s", base, file)
	} else {
		u = fmt.Sprintf("%s/releases/download/%s/%s", base, version, file)
	}

	return Asset{
		Arch:        arch,
		OS:          osName,
		Version:     version,
		FileName:    file,
		URL:         u,
		ChecksumURL: u + ".sha256",
	}, nil
}

// RepoFromURL extracts owner and repository from a github.com release URL
// such as https://github.com/kilnhq/kiln. ok is false for other hosts.
func RepoFromURL(base string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || !strings.EqualFold(u.Hostname(), "github.com") {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}
