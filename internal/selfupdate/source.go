// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultSourceModule is the module path passed to go install.
const DefaultSourceModule = "github.com/kilnhq/kiln"

// ErrBadRef is returned for an empty or ambiguous source reference.
var ErrBadRef = errors.New("specify exactly one of tag or rev")

type (
	// runFunc executes name with args in env, streaming output to w.
	runFunc func(ctx context.Context, env []string, w io.Writer, name string, args ...string) error

	// SourceBuilder produces a kiln binary from a git tag or revision using
	// the Go toolchain.
	SourceBuilder struct {
		Module string
		GoTool string
		Output io.Writer
		run    runFunc
	}
)

// NewSourceBuilder returns a builder for module using the go binary on PATH.
func NewSourceBuilder(module string, out io.Writer) *SourceBuilder {
	if module == "" {
		module = DefaultSourceModule
	}
	return &SourceBuilder{Module: module, GoTool: "go", Output: out, run: runCommand}
}

// Build compiles kiln at tag or rev into a private GOBIN and returns it as
// a PendingUpdate.
func (b *SourceBuilder) Build(ctx context.Context, tag, rev, binaryName string) (_ *PendingUpdate, err error) {
	ref := tag
	if (tag == "") == (rev == "") {
		return nil, ErrBadRef
	}
	if rev != "" {
		ref = rev
	}

	p, err := newPending(binaryName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			p.Cleanup()
		}
	}()

	env := append(os.Environ(), "GOBIN="+filepath.Dir(p.Path))
	pkg := fmt.Sprintf("%s@%s", b.Module, ref)
	if err := b.run(ctx, env, b.Output, b.GoTool, "install", pkg); err != nil {
		return nil, fmt.Errorf("building %s: %w", pkg, err)
	}

	if _, err := os.Stat(p.Path); err != nil {
		return nil, fmt.Errorf("build of %s produced no binary: %w", pkg, err)
	}
	return p, nil
}

func runCommand(ctx context.Context, env []string, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}
