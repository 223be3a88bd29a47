// SPDX-License-Identifier: MPL-2.0

// Package tui wraps charmbracelet/huh prompts used by kiln's interactive
// commands. Prompts fall back to huh's accessible line mode when stdin is not
// a terminal.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme represents the visual theme for prompts.
type Theme string

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
)

// Config holds common configuration for prompts.
type Config struct {
	Theme Theme
	// Accessible replaces the full-screen prompt with plain line input.
	Accessible bool
	Input      io.Reader
	Output     io.Writer
}

// ParseTheme maps a ui.theme setting to a Theme. Unknown names select
// ThemeDefault.
func ParseTheme(name string) Theme {
	switch t := Theme(name); t {
	case ThemeCharm, ThemeDracula:
		return t
	default:
		return ThemeDefault
	}
}

// ConfigFor returns a configuration reading answers from in. Accessible
// mode is enabled when in is not a terminal or ACCESSIBLE is set; prompts
// then go to stderr so they are not captured by $().
func ConfigFor(in io.Reader, stdout, stderr io.Writer) Config {
	accessible := !isTerminal(in) || os.Getenv("ACCESSIBLE") != ""

	output := stdout
	if accessible {
		output = stderr
	}

	return Config{
		Theme:      ThemeDefault,
		Accessible: accessible,
		Input:      in,
		Output:     output,
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func huhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	default:
		return huh.ThemeBase()
	}
}

func newForm(cfg Config, fields ...huh.Field) *huh.Form {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huhTheme(cfg.Theme)).
		WithAccessible(cfg.Accessible).
		WithShowHelp(!cfg.Accessible)
	if cfg.Input != nil {
		form = form.WithInput(cfg.Input)
	}
	if cfg.Output != nil {
		form = form.WithOutput(cfg.Output)
	}
	return form
}
