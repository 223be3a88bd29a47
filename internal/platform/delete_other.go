// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package platform

import (
	"errors"
	"io/fs"
	"os"
)

// ScheduleDelete removes path right away; nothing outside Windows locks a
// running executable.
func ScheduleDelete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
