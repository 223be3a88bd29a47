// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/kilnhq/kiln/internal/apphome"
)

const (
	// InstallMethodUnknown is a binary kiln knows nothing about.
	InstallMethodUnknown InstallMethod = iota
	// InstallMethodSelf is a binary living in the application shims directory.
	InstallMethodSelf
	// InstallMethodHomebrew is managed by brew.
	InstallMethodHomebrew
	// InstallMethodGoInstall was built by go install into GOPATH/bin.
	InstallMethodGoInstall
)

var (
	//nolint:gochecknoglobals // Build-time ldflags injection.
	installMethodHint string

	//nolint:gochecknoglobals // Test seam for debug.ReadBuildInfo.
	readBuildInfo = debug.ReadBuildInfo

	//nolint:gochecknoglobals // known Homebrew prefixes
	homebrewPrefixes = []string{"/opt/homebrew/", "/usr/local/Cellar/", "/home/linuxbrew/.linuxbrew/"}
)

// InstallMethod says who owns the running binary, which decides whether
// kiln may replace it.
type InstallMethod int

func (m InstallMethod) String() string {
	switch m {
	case InstallMethodSelf:
		return "self"
	case InstallMethodHomebrew:
		return "homebrew"
	case InstallMethodGoInstall:
		return "goinstall"
	case InstallMethodUnknown:
	}
	return "unknown"
}

// Managed reports whether a package manager owns the binary.
func (m InstallMethod) Managed() bool {
	return m == InstallMethodHomebrew || m == InstallMethodGoInstall
}

// DetectInstallMethod classifies execPath. An ldflags hint wins, then the
// application directory, then Homebrew prefixes, then GOPATH/bin confirmed
// by the module path in the build info.
func DetectInstallMethod(execPath string, home apphome.Home) InstallMethod {
	if installMethodHint != "" {
		return parseMethodHint(installMethodHint)
	}
	if home.Root != "" && home.Contains(execPath) {
		return InstallMethodSelf
	}
	for _, prefix := range homebrewPrefixes {
		if strings.Contains(execPath, prefix) {
			return InstallMethodHomebrew
		}
	}
	if isInGOPATHBin(execPath) && builtFromModule() {
		return InstallMethodGoInstall
	}
	return InstallMethodUnknown
}

// ManagedMessage is the guidance shown instead of replacing a managed binary.
func ManagedMessage(m InstallMethod, execPath string) string {
	switch m {
	case InstallMethodHomebrew:
		return "kiln at " + execPath + " is managed by Homebrew.\n\nTo update, run:\n  brew upgrade kiln"
	case InstallMethodGoInstall:
		return "kiln at " + execPath + " was installed with go install.\n\nTo update, run:\n  go install " + DefaultSourceModule + "@latest"
	case InstallMethodSelf, InstallMethodUnknown:
	}
	return ""
}

func parseMethodHint(hint string) InstallMethod {
	switch strings.ToLower(hint) {
	case "self":
		return InstallMethodSelf
	case "homebrew":
		return InstallMethodHomebrew
	case "goinstall":
		return InstallMethodGoInstall
	}
	return InstallMethodUnknown
}

func isInGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}
	bin := filepath.Clean(filepath.Join(gopath, "bin"))
	return strings.HasPrefix(filepath.Clean(execPath), bin+string(filepath.Separator))
}

func builtFromModule() bool {
	info, ok := readBuildInfo()
	return ok && info != nil && strings.HasPrefix(info.Path, DefaultSourceModule)
}
