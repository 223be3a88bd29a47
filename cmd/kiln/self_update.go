// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kilnhq/kiln/internal/selfupdate"

	"github.com/spf13/cobra"
)

// updateParams bundles the dependencies and flags of `kiln self update` so
// runUpdate can be tested without a Cobra command.
type updateParams struct {
	stdout  io.Writer
	stderr  io.Writer
	updater *selfupdate.Updater
	req     selfupdate.Request
	check   bool // report availability without installing
}

func newSelfUpdateCommand(a *app) *cobra.Command {
	var (
		req   selfupdate.Request
		check bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update kiln to the latest release or a specific version",
		Long: `Update kiln to the latest release or a specific version.

The release binary is downloaded, checked against its published SHA-256
checksum and swapped in for the running executable. With --tag or --rev the
binary is built from source with go install instead. Shims that are copies
of kiln are refreshed afterwards.

Binaries installed by Homebrew or go install are left to their package
manager unless --force is given.`,
		Example: `  # Update to the latest release
  kiln self update

  # Check for updates without installing
  kiln self update --check

  # Install a specific release
  kiln self update --version 1.4.0

  # Build from a git tag or revision
  kiln self update --tag v1.5.0-rc.1
  kiln self update --rev 3f2a1c9`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			p := updateParams{
				stdout:  cmd.OutOrStdout(),
				stderr:  cmd.ErrOrStderr(),
				updater: a.newUpdater(cmd.OutOrStdout()),
				req:     req,
				check:   check,
			}
			if err := runUpdate(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatUpdateError(err))
				return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Version, "version", "", "release version to install (default latest)")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "build and install the given git tag")
	cmd.Flags().StringVar(&req.Rev, "rev", "", "build and install the given git revision")
	cmd.Flags().BoolVar(&req.Force, "force", false, "replace the binary even if a package manager owns it")
	cmd.Flags().BoolVar(&check, "check", false, "check for an available update without installing")
	cmd.MarkFlagsMutuallyExclusive("version", "tag", "rev")
	cmd.MarkFlagsMutuallyExclusive("check", "tag")
	cmd.MarkFlagsMutuallyExclusive("check", "rev")

	return cmd
}

func (a *app) newUpdater(out io.Writer) *selfupdate.Updater {
	clientOpts := []selfupdate.ClientOption{
		selfupdate.WithHTTPClient(&http.Client{Timeout: a.cfg.Self.HTTPTimeout}),
		selfupdate.WithAPIURL(a.cfg.Self.APIURL),
		selfupdate.WithUserAgent("kiln/" + Version),
	}
	if owner, repo, ok := selfupdate.RepoFromURL(a.cfg.Self.ReleaseURL); ok {
		clientOpts = append(clientOpts, selfupdate.WithRepo(owner, repo))
	}
	// A token raises the API rate limit from 60 to 5000 requests per hour.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		clientOpts = append(clientOpts, selfupdate.WithToken(token))
	}

	return selfupdate.NewUpdater(a.home, Version,
		selfupdate.WithClient(selfupdate.NewClient(clientOpts...)),
		selfupdate.WithReleaseURL(a.cfg.Self.ReleaseURL),
		selfupdate.WithSourceBuilder(selfupdate.NewSourceBuilder(a.cfg.Self.SourceModule, out)),
		selfupdate.WithOutput(out),
		selfupdate.WithLogger(a.logger),
	)
}

// runUpdate is the core update logic. All user-facing output goes through
// p.stdout; failures are returned for the caller to format.
func runUpdate(ctx context.Context, p updateParams) error {
	if p.check {
		return runUpdateCheck(ctx, p)
	}

	res, err := p.updater.Update(ctx, p.req)
	if err != nil {
		return err
	}

	printUpdateResult(p.stdout, res)
	p.updater.PrintVersion(ctx, res.Executable)
	return nil
}

func printUpdateResult(w io.Writer, res *selfupdate.Result) {
	if n := len(res.Shims.Updated); n > 0 {
		fmt.Fprintf(w, "Refreshed %d shim(s)\n", n)
	}
	if !res.Verified {
		fmt.Fprintln(w, WarningStyle.Render("Installed without checksum verification: the release has no .sha256 file."))
	}
	fmt.Fprintln(w, SuccessStyle.Render("Updated!"))
	fmt.Fprintln(w)
}

func runUpdateCheck(ctx context.Context, p updateParams) error {
	check, err := p.updater.Check(ctx, p.req.Version)
	if err != nil {
		return fmt.Errorf("checking for update: %w", err)
	}

	if check.InstallMethod.Managed() {
		fmt.Fprintln(p.stdout, WarningStyle.Render(check.Message))
		return nil
	}

	fmt.Fprintf(p.stdout, "Current version: %s\n", check.CurrentVersion)
	fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.LatestVersion)
	fmt.Fprintf(p.stdout, "\n%s\n", check.Message)
	if check.UpdateAvailable {
		fmt.Fprintln(p.stdout, "Run "+CmdStyle.Render("kiln self update")+" to install.")
	}
	return nil
}

// classifyUpdateExitCode maps an update error to the process exit code.
// User-correctable failures use 1; transient or unexpected ones use 2.
func classifyUpdateExitCode(err error) int {
	switch {
	case errors.Is(err, os.ErrPermission),
		errors.Is(err, selfupdate.ErrReleaseNotFound),
		errors.Is(err, selfupdate.ErrManagedInstall),
		errors.Is(err, selfupdate.ErrInvalidVersion),
		errors.Is(err, selfupdate.ErrUnsupportedPlatform),
		errors.Is(err, selfupdate.ErrBadRef):
		return 1
	default:
		return 2
	}
}

// formatUpdateError produces a message with remediation tailored to the
// error type.
func formatUpdateError(err error) string {
	var rateLimitErr *selfupdate.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.Error() + "\n\nTo increase your rate limit, set a GitHub token:\n  export GITHUB_TOKEN=ghp_...\nThen retry: kiln self update"
	}

	var checksumErr *selfupdate.ChecksumError
	if errors.As(err, &checksumErr) {
		return fmt.Sprintf("checksum verification failed for %s\n\nExpected: %s\nGot:      %s\n\nThe download may be corrupted; the installed binary was not changed. Please try again.",
			checksumErr.Filename, checksumErr.Expected, checksumErr.Got)
	}

	if errors.Is(err, selfupdate.ErrManagedInstall) {
		msg := strings.TrimPrefix(err.Error(), selfupdate.ErrManagedInstall.Error()+": ")
		return msg + "\n\nPass --force to replace it anyway."
	}

	if errors.Is(err, os.ErrPermission) {
		return "insufficient permissions to replace the binary\n\n" + err.Error()
	}

	var statusErr *selfupdate.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, selfupdate.ErrNotFound) {
		return err.Error() + "\n\nCheck that the requested version exists and that the release URL in config.cue is correct."
	}

	return err.Error()
}
