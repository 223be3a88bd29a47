// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ConfirmOptions configures a yes/no prompt.
type ConfirmOptions struct {
	Title       string
	Description string
	// Affirmative defaults to "Yes".
	Affirmative string
	// Negative defaults to "No".
	Negative string
	Default  bool
	Config   Config
}

// Confirm asks a yes/no question. Aborting the prompt (Ctrl+C, Esc) counts
// as "no".
func Confirm(ctx context.Context, opts ConfirmOptions) (bool, error) {
	result := opts.Default

	affirmative := opts.Affirmative
	if affirmative == "" {
		affirmative = "Yes"
	}
	negative := opts.Negative
	if negative == "" {
		negative = "No"
	}

	field := huh.NewConfirm().
		Title(opts.Title).
		Affirmative(affirmative).
		Negative(negative).
		Value(&result)
	if opts.Description != "" {
		field = field.Description(opts.Description)
	}

	err := newForm(opts.Config, field).RunWithContext(ctx)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, huh.ErrUserAborted):
		return false, nil
	default:
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
}

// Confirmer adapts Confirm to the func(title) (bool, error) shape used by
// the install and uninstall flows.
func Confirmer(ctx context.Context, cfg Config) func(string) (bool, error) {
	return func(title string) (bool, error) {
		return Confirm(ctx, ConfirmOptions{Title: title, Config: cfg})
	}
}
