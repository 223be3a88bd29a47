// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

// ErrCancelled marks an operation the user declined at a prompt.
var ErrCancelled = errors.New("cancelled by user")

// QuietExit asks the CLI to terminate with Code without printing anything.
// Whatever the user needed to see has already been written.
type QuietExit struct {
	Code int
	Err  error
}

// Cancelled is the QuietExit returned when a confirmation is declined.
func Cancelled() *QuietExit {
	return &QuietExit{Code: 1, Err: ErrCancelled}
}

func (q *QuietExit) Error() string {
	if q.Err != nil {
		return fmt.Sprintf("exit %d: %v", q.Code, q.Err)
	}
	return fmt.Sprintf("exit %d", q.Code)
}

func (q *QuietExit) Unwrap() error { return q.Err }

// AsQuietExit reports whether err carries a QuietExit anywhere in its chain.
func AsQuietExit(err error) (*QuietExit, bool) {
	var q *QuietExit
	if errors.As(err, &q) {
		return q, true
	}
	return nil, false
}
