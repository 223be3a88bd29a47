// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/shims"
)

var (
	// ErrInvalidVersion indicates a version string that is not semver.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrManagedInstall is returned when a package manager owns the binary.
	ErrManagedInstall = errors.New("binary is managed by a package manager")

	//nolint:gochecknoglobals // Test seam for running the new binary.
	execCommand = exec.CommandContext
)

type (
	// Request selects what to update to. Tag and Rev build from source and
	// are mutually exclusive; otherwise Version picks a release, empty
	// meaning the latest one.
	Request struct {
		Version string
		Tag     string
		Rev     string
		// Force replaces binaries owned by a package manager.
		Force bool
	}

	// Result describes a completed update.
	Result struct {
		Executable string
		Asset      *Asset
		// Verified is false when no checksum sidecar was published.
		Verified bool
		Shims    shims.Report
	}

	// Check is the outcome of comparing the running version with a release.
	Check struct {
		CurrentVersion  string
		LatestVersion   string
		InstallMethod   InstallMethod
		UpdateAvailable bool
		Message         string
	}

	// Updater replaces the running kiln with a release or a source build.
	Updater struct {
		client         *Client
		builder        *SourceBuilder
		ops            platform.Ops
		home           apphome.Home
		releaseURL     string
		currentVersion string
		goos, goarch   string
		out            io.Writer
		logger         *log.Logger
	}

	// UpdaterOption configures an Updater.
	UpdaterOption func(*Updater)
)

// WithClient overrides the HTTP client used for downloads and lookups.
func WithClient(c *Client) UpdaterOption {
	return func(u *Updater) { u.client = c }
}

// WithSourceBuilder overrides how --tag and --rev builds are produced.
func WithSourceBuilder(b *SourceBuilder) UpdaterOption {
	return func(u *Updater) { u.builder = b }
}

// WithReleaseURL sets the repository URL release assets are served from.
func WithReleaseURL(base string) UpdaterOption {
	return func(u *Updater) { u.releaseURL = base }
}

// WithPlatform overrides the OS strategy and the target arch/OS.
func WithPlatform(ops platform.Ops, goos, goarch string) UpdaterOption {
	return func(u *Updater) {
		u.ops = ops
		u.goos = goos
		u.goarch = goarch
	}
}

// WithOutput sets where user-facing progress is written.
func WithOutput(w io.Writer) UpdaterOption {
	return func(u *Updater) { u.out = w }
}

// WithLogger sets the structured logger for warnings and debug output.
func WithLogger(l *log.Logger) UpdaterOption {
	return func(u *Updater) { u.logger = l }
}

// NewUpdater returns an Updater for the given home and running version.
func NewUpdater(home apphome.Home, currentVersion string, opts ...UpdaterOption) *Updater {
	u := &Updater{
		home:           home,
		currentVersion: currentVersion,
		releaseURL:     DefaultReleaseURL,
		ops:            platform.Current(),
		goos:           runtime.GOOS,
		goarch:         runtime.GOARCH,
		out:            io.Discard,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.client == nil {
		u.client = NewClient(WithUserAgent("kiln/" + currentVersion))
	}
	if u.builder == nil {
		u.builder = NewSourceBuilder("", u.out)
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	return u
}

// Update fetches or builds the requested binary and swaps it in for the
// running executable. All network and build work finishes before the
// executable is touched; a verification failure leaves it unchanged.
func (u *Updater) Update(ctx context.Context, req Request) (*Result, error) {
	execPath, err := ResolveExecutable()
	if err != nil {
		return nil, err
	}

	if method := DetectInstallMethod(execPath, u.home); method.Managed() && !req.Force {
		return nil, fmt.Errorf("%w: %s", ErrManagedInstall, ManagedMessage(method, execPath))
	}

	res := &Result{Executable: execPath}
	binaryName := apphome.BinaryName + u.ops.ExeSuffix()

	var pending *PendingUpdate
	if req.Tag != "" || req.Rev != "" {
		pending, err = u.builder.Build(ctx, req.Tag, req.Rev, binaryName)
		if err != nil {
			return nil, err
		}
		res.Verified = true
	} else {
		pending, err = u.download(ctx, req.Version, res, binaryName)
		if err != nil {
			return nil, err
		}
	}
	defer pending.Cleanup()

	if err := Replace(u.ops, execPath, pending.Path); err != nil {
		return nil, err
	}
	u.logger.Debug("executable replaced", "path", execPath)

	if u.home.Exists() {
		report, err := shims.Sync(u.ops, u.home.ShimsDir(), execPath, u.logger)
		if err != nil {
			u.logger.Warn("shims were not synchronized", "err", err)
		}
		res.Shims = report
	}

	return res, nil
}

func (u *Updater) download(ctx context.Context, version string, res *Result, binaryName string) (*PendingUpdate, error) {
	asset, err := ResolveAsset(u.releaseURL, version, u.goarch, u.goos, u.ops)
	if err != nil {
		return nil, err
	}
	res.Asset = &asset

	fmt.Fprintf(u.out, "Downloading %s\n", asset.URL)
	payload, err := u.client.Fetch(ctx, asset.URL)
	if err != nil {
		return nil, err
	}

	sidecar, found, err := u.client.FetchOptional(ctx, asset.ChecksumURL)
	if err != nil {
		return nil, fmt.Errorf("fetching checksum: %w", err)
	}
	if found {
		fmt.Fprintln(u.out, "Checking checksum")
		expected, err := ParseSidecar(sidecar)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", asset.ChecksumURL, err)
		}
		if err := VerifyBytes(asset.FileName, payload, expected); err != nil {
			return nil, err
		}
		res.Verified = true
	} else {
		fmt.Fprintln(u.out, "Checksum check skipped (no hash available)")
		u.logger.Warn("no checksum published, skipping verification", "asset", asset.FileName)
	}

	return Decode(payload, DecoderFor(asset.FileName), binaryName)
}

// PrintVersion runs the freshly installed binary with --version, streaming
// its output. A failure here does not undo the update.
func (u *Updater) PrintVersion(ctx context.Context, exe string) {
	cmd := execCommand(ctx, exe, "--version")
	cmd.Stdout = u.out
	cmd.Stderr = u.out
	if err := cmd.Run(); err != nil {
		u.logger.Warn("could not run updated binary", "path", exe, "err", err)
	}
}

// Check compares the running version with the latest release, or with
// target when set. Managed installs get package manager guidance without a
// network call.
func (u *Updater) Check(ctx context.Context, target string) (*Check, error) {
	execPath, err := ResolveExecutable()
	if err != nil {
		return nil, err
	}
	method := DetectInstallMethod(execPath, u.home)
	if method.Managed() {
		return &Check{
			CurrentVersion: u.currentVersion,
			InstallMethod:  method,
			Message:        ManagedMessage(method, execPath),
		}, nil
	}

	var rel *Release
	if target != "" {
		tag, tagErr := normalizeVersion(target)
		if tagErr != nil {
			return nil, tagErr
		}
		rel, err = u.client.ReleaseByTag(ctx, tag)
		if errors.Is(err, ErrReleaseNotFound) {
			rel, err = u.client.ReleaseByTag(ctx, strings.TrimPrefix(tag, "v"))
		}
	} else {
		rel, err = u.client.LatestRelease(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up release: %w", err)
	}

	current, err := normalizeVersion(u.currentVersion)
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}
	latest, err := normalizeVersion(rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("release version: %w", err)
	}

	c := &Check{
		CurrentVersion: u.currentVersion,
		LatestVersion:  rel.TagName,
		InstallMethod:  method,
	}
	switch cmp := semver.Compare(current, latest); {
	case cmp >= 0 && semver.Prerelease(current) != "":
		c.Message = fmt.Sprintf("Running pre-release %s (ahead of %s).", u.currentVersion, rel.TagName)
	case cmp >= 0:
		c.Message = "Already up to date."
	default:
		c.UpdateAvailable = true
		c.Message = fmt.Sprintf("Update available: %s -> %s", u.currentVersion, rel.TagName)
	}
	return c, nil
}

// normalizeVersion adds the "v" prefix semver expects and validates.
func normalizeVersion(v string) (string, error) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}
