// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/kilnhq/kiln/internal/apphome"
	"github.com/kilnhq/kiln/internal/issue"
	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/selfupdate"
	"github.com/kilnhq/kiln/internal/shims"
	"github.com/kilnhq/kiln/internal/toolchain"
)

const (
	// ModeDefault asks for confirmation before changing anything.
	ModeDefault Mode = iota
	// ModeNoPrompts is --yes.
	ModeNoPrompts
	// ModeAutoInstall is a first run from outside the application directory.
	ModeAutoInstall
)

// Install steps, in the order Run visits them.
const (
	StepGreeting Step = iota
	StepConfirmOrSkip
	StepPlaceBinary
	StepWriteEnvFile
	StepRegisterToolchain
	StepBootstrapRuntime
	StepReportPathAdvice
	StepDone
)

type (
	// Mode selects how interactive an install is.
	Mode int

	// Step is a stage of the install sequence.
	Step int

	// ConfirmFunc asks a yes/no question.
	ConfirmFunc func(title string) (bool, error)

	// Options are the per-run inputs.
	Options struct {
		Mode Mode
		// Toolchain is an interpreter path to register, or empty.
		Toolchain string
	}

	// Installer performs the install sequence against Home.
	Installer struct {
		Home         apphome.Home
		Ops          platform.Ops
		Version      string
		Confirm      ConfirmFunc
		Registrar    toolchain.Registrar
		Bootstrapper toolchain.Bootstrapper
		Stdout       io.Writer
		Stderr       io.Writer
		Logger       *log.Logger

		// Executable returns the running binary; nil means the real one.
		Executable func() (string, error)
		// Getenv reads PATH and SHELL; nil means os.Getenv.
		Getenv func(string) string
	}
)

func (s Step) String() string {
	switch s {
	case StepGreeting:
		return "greeting"
	case StepConfirmOrSkip:
		return "confirm"
	case StepPlaceBinary:
		return "place-binary"
	case StepWriteEnvFile:
		return "write-env-file"
	case StepRegisterToolchain:
		return "register-toolchain"
	case StepBootstrapRuntime:
		return "bootstrap-runtime"
	case StepReportPathAdvice:
		return "path-advice"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Run executes the install sequence. Declining the confirmation prints
// "Installation cancelled!" and returns an issue.QuietExit with code 1.
// A rejected toolchain aborts before the runtime is bootstrapped.
func (in *Installer) Run(ctx context.Context, opts Options) error {
	in.defaults()

	exe, err := in.Executable()
	if err != nil {
		return err
	}

	for step := StepGreeting; step <= StepDone; step++ {
		in.Logger.Debug("install step", "step", step)
		if err := in.run(ctx, step, opts, exe); err != nil {
			return err
		}
	}
	return nil
}

func (in *Installer) run(ctx context.Context, step Step, opts Options, exe string) error {
	switch step {
	case StepGreeting:
		in.greet(opts.Mode)
	case StepConfirmOrSkip:
		return in.confirm(opts.Mode)
	case StepPlaceBinary:
		return in.placeBinary(exe)
	case StepWriteEnvFile:
		return in.writeEnvFile()
	case StepRegisterToolchain:
		return in.registerToolchain(ctx, opts.Toolchain)
	case StepBootstrapRuntime:
		dir, err := in.Bootstrapper.EnsureRuntime(ctx)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("bootstrap internal runtime").
				WithResource(in.Home.SelfDir()).
				Wrap(err).
				BuildError()
		}
		fmt.Fprintf(in.Stdout, "Updated self-managed runtime at %s\n", dir)
	case StepReportPathAdvice:
		in.reportPath()
	case StepDone:
		fmt.Fprintln(in.Stdout)
		fmt.Fprintln(in.Stdout, "All done!")
	}
	return nil
}

func (in *Installer) greet(mode Mode) {
	w := in.Stdout
	fmt.Fprintln(w, "Welcome to kiln!")
	if mode == ModeAutoInstall {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "This is the first time kiln runs outside its application directory,")
		fmt.Fprintln(w, "so it is installing itself now. Set KILN_NO_AUTO_INSTALL=1 to disable this.")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "This installer will install kiln to %s\n", in.Home.Display)
	fmt.Fprintf(w, "This path can be changed by exporting the %s environment variable.\n", apphome.EnvHome)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Details:")
	fmt.Fprintf(w, "  kiln version: %s\n", in.Version)
	fmt.Fprintf(w, "  platform: %s (%s/%s)\n", in.Ops.Name(), runtime.GOOS, runtime.GOARCH)

	if in.Ops.Name() == platform.OSWindows && !platform.SupportsSymlinks(os.TempDir()) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warning: your user cannot create symlinks.")
		fmt.Fprintln(w, "Enable Windows developer mode for the best experience; shims will be copies until then.")
	}
	fmt.Fprintln(w)
}

func (in *Installer) confirm(mode Mode) error {
	if mode != ModeDefault {
		return nil
	}
	ok, err := in.Confirm("Continue?")
	if err != nil {
		return fmt.Errorf("asking for confirmation: %w", err)
	}
	if !ok {
		fmt.Fprintln(in.Stderr, "Installation cancelled!")
		return issue.Cancelled()
	}
	return nil
}

// placeBinary puts the running executable at shims/kiln. When the running
// binary already is that file there is nothing to copy.
func (in *Installer) placeBinary(exe string) error {
	dir := in.Home.ShimsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return issue.WrapWithContext(err, "create shims directory", dir)
	}
	platform.SweepCleanup(dir)

	target := in.Home.PrimaryShim(in.Ops.ExeSuffix())
	if sameFile(exe, target) {
		in.Logger.Debug("binary already in place", "path", target)
	} else if err := selfupdate.Replace(in.Ops, target, exe); err != nil {
		return issue.NewErrorContext().
			WithOperation("copy kiln into the shims directory").
			WithResource(target).
			WithSuggestion("Check that " + dir + " is writable and no other kiln is running from it").
			Wrap(err).
			BuildError()
	}

	if _, err := shims.Sync(in.Ops, dir, target, in.Logger); err != nil {
		in.Logger.Warn("existing shims were not refreshed", "err", err)
	}
	return nil
}

func (in *Installer) writeEnvFile() error {
	if !in.Ops.NeedsEnvFile() {
		return nil
	}
	content, err := RenderEnvFile(in.Home)
	if err != nil {
		return err
	}
	path := in.Home.EnvFile()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return issue.WrapWithContext(err, "write env file", path)
	}
	return nil
}

func (in *Installer) registerToolchain(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	v, err := in.Registrar.Register(ctx, path, toolchain.ValidateSelfToolchain)
	if err != nil {
		ec := issue.NewErrorContext().
			WithOperation("register toolchain").
			WithResource(path).
			Wrap(err)
		if errors.Is(err, toolchain.ErrIncompatibleToolchain) {
			ec.WithSuggestion("Pass a CPython 3.9+ interpreter with --toolchain, or omit it")
		}
		return ec.BuildError()
	}
	fmt.Fprintf(in.Stdout, "Registered toolchain as %s\n", v)
	return nil
}

func (in *Installer) reportPath() {
	advice := AdvisePath(in.Home, in.Ops, in.Getenv("PATH"), in.Getenv("SHELL"))
	if advice.OnPath {
		return
	}
	fmt.Fprintln(in.Stdout)
	for _, line := range advice.Lines {
		fmt.Fprintln(in.Stdout, line)
	}
}

func (in *Installer) defaults() {
	if in.Stdout == nil {
		in.Stdout = io.Discard
	}
	if in.Stderr == nil {
		in.Stderr = io.Discard
	}
	if in.Logger == nil {
		in.Logger = log.New(io.Discard)
	}
	if in.Executable == nil {
		in.Executable = selfupdate.ResolveExecutable
	}
	if in.Getenv == nil {
		in.Getenv = os.Getenv
	}
	if in.Confirm == nil {
		in.Confirm = func(string) (bool, error) { return false, nil }
	}
	if in.Registrar == nil {
		in.Registrar = toolchain.NewFileRegistrar(in.Home.PyDir())
	}
	if in.Bootstrapper == nil {
		in.Bootstrapper = &toolchain.DirBootstrapper{Home: in.Home, Ops: in.Ops, KilnVersion: in.Version, Logger: in.Logger}
	}
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// AutoConfig carries the settings that govern automatic installation.
type AutoConfig struct {
	// Disabled is KILN_NO_AUTO_INSTALL=1.
	Disabled bool
	// Toolchain is KILN_TOOLCHAIN.
	Toolchain string
}

// AutoInstall installs kiln unprompted when it is not installed yet. It
// reports whether an install ran.
func AutoInstall(ctx context.Context, in *Installer, cfg AutoConfig) (bool, error) {
	if cfg.Disabled {
		return false, nil
	}
	if info, err := os.Stat(in.Home.PrimaryShim(in.Ops.ExeSuffix())); err == nil && info.Mode().IsRegular() {
		return false, nil
	}
	if err := in.Run(ctx, Options{Mode: ModeAutoInstall, Toolchain: cfg.Toolchain}); err != nil {
		return true, err
	}
	return true, nil
}
