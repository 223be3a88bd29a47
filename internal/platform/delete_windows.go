// SPDX-License-Identifier: MPL-2.0

//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// ScheduleDelete arranges for path to be removed after this process exits.
// A detached cmd.exe polls until the image is unlocked; the file is also
// registered for deletion at the next reboot in case the helper dies.
func ScheduleDelete(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err == nil {
		_ = windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT)
	}

	script := fmt.Sprintf(
		`for /L %%i in (1,1,30) do (del /F /Q "%s" >NUL 2>&1 & if not exist "%s" exit /B 0 & ping -n 2 127.0.0.1 >NUL)`,
		path, path)
	cmd := exec.Command("cmd.exe", "/C", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting deferred delete for %s: %w", path, err)
	}
	return cmd.Process.Release()
}
