// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"testing"
)

func TestCancelled(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("uninstall: %w", Cancelled())

	q, ok := AsQuietExit(err)
	if !ok {
		t.Fatal("AsQuietExit() = false, want true")
	}
	if q.Code != 1 {
		t.Errorf("Code = %d, want 1", q.Code)
	}
	if !errors.Is(err, ErrCancelled) {
		t.Error("errors.Is(err, ErrCancelled) = false")
	}
}

func TestAsQuietExit_Other(t *testing.T) {
	t.Parallel()

	if _, ok := AsQuietExit(errors.New("boom")); ok {
		t.Error("AsQuietExit() = true for a plain error")
	}
	if got := (&QuietExit{Code: 3}).Error(); got != "exit 3" {
		t.Errorf("Error() = %q", got)
	}
}
