// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/config"
	"github.com/kilnhq/kiln/internal/install"
	"github.com/kilnhq/kiln/internal/issue"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/toolchain"
	"github.com/kilnhq/kiln/internal/tui"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// app is the state shared by all commands of one invocation. It is filled in
// by setup before a command body runs.
type app struct {
	verbose bool
	cfgFile string

	home     apphome.Home
	cfg      *config.Config
	cfgPath  string
	ops      platform.Ops
	logger   *log.Logger
	provider config.Provider

	// exitCode is set when a command fails after reporting the failure itself.
	exitCode int
}

func newApp() *app {
	return &app{
		ops:      platform.Current(),
		provider: config.NewProvider(),
		logger:   log.New(io.Discard),
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "kiln",
		Short: "A self-managing Python toolchain manager",
		Long: TitleStyle.Render("kiln") + SubtitleStyle.Render(" - a self-managing Python toolchain manager") + `

kiln installs itself into a per-user directory (` + CmdStyle.Render("~/.kiln") + ` by default,
or ` + CmdStyle.Render("$KILN_HOME") + `), keeps its interpreter shims in sync and updates
itself from published releases.

` + SubtitleStyle.Render("Examples:") + `
  kiln self update            Update to the latest release
  kiln self update --check    Report whether an update is available
  kiln self uninstall         Remove kiln and everything it manages
  kiln self completion        Print a shell completion script`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is <kiln home>/config.cue)")

	root.AddCommand(newSelfCommand(a))
	root.AddCommand(newVersionCommand(a))

	return root
}

// Execute runs the kiln CLI. It is called by main.main().
func Execute() {
	a := newApp()
	root := newRootCommand(a)

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
	if a.exitCode != 0 {
		os.Exit(a.exitCode)
	}
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// setup resolves the application directory, loads configuration and
// configures the logger.
func (a *app) setup(cmd *cobra.Command) error {
	home, err := apphome.Resolve()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("locate the kiln home directory").
			WithSuggestion("Set " + apphome.EnvHome + " to the directory kiln should manage").
			Wrap(err).
			BuildError()
	}
	a.home = home

	cfg, path, err := a.provider.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.cfgFile,
		Home:           home,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.cfgPath = path
	if !a.verbose {
		a.verbose = cfg.UI.Verbose
	}

	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "kiln"})
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	a.logger.Debug("resolved home", "root", home.Root, "custom", home.Custom, "config", path)
	return nil
}

// skipsAutoInstall is true for commands in the self group.
func skipsAutoInstall(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "self" {
			return true
		}
	}
	return false
}

func (a *app) autoInstall(cmd *cobra.Command) error {
	_, err := install.AutoInstall(cmd.Context(), a.newInstaller(cmd), install.AutoConfig{
		Disabled:  a.cfg.Self.NoAutoInstall,
		Toolchain: a.cfg.Self.Toolchain,
	})
	return err
}

func (a *app) newInstaller(cmd *cobra.Command) *install.Installer {
	registrar := toolchain.NewFileRegistrar(a.home.PyDir())
	return &install.Installer{
		Home:      a.home,
		Ops:       a.ops,
		Version:   Version,
		Confirm:   tui.Confirmer(cmd.Context(), a.promptConfig(cmd)),
		Registrar: registrar,
		Bootstrapper: &toolchain.DirBootstrapper{
			Home:        a.home,
			Ops:         a.ops,
			KilnVersion: Version,
			CoreShims:   a.cfg.Shims.Core,
			Registrar:   registrar,
			Logger:      a.logger,
		},
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Logger: a.logger,
	}
}

// promptConfig binds prompts to the command's streams so tests and pipes
// can answer them, styled with the configured ui.theme.
func (a *app) promptConfig(cmd *cobra.Command) tui.Config {
	cfg := tui.ConfigFor(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if a.cfg != nil {
		cfg.Theme = tui.ParseTheme(a.cfg.UI.Theme)
	}
	return cfg
}

// report turns errors that carry their own presentation into an exit code.
// Quiet exits print nothing and actionable errors print their suggestions.
// Anything else is returned for fang to render.
func (a *app) report(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	if q, ok := issue.AsQuietExit(err); ok {
		a.exitCode = q.Code
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		a.exitCode = exitErr.Code
		return nil
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+ae.Format(a.verbose))
		a.exitCode = 1
		return nil
	}

	return err
}

// runE wraps a command body with setup, the first-run installation and
// error reporting.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			return a.report(cmd, err)
		}
		if !skipsAutoInstall(cmd) {
			if err := a.autoInstall(cmd); err != nil {
				return a.report(cmd, err)
			}
		}
		return a.report(cmd, fn(cmd, args))
	}
}

func platformString() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
