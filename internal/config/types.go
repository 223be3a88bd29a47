// SPDX-License-Identifier: MPL-2.0

package config

import (
	"runtime"
	"time"

	"github.com/kilnhq/kiln/internal/platform"
	"github.com/kilnhq/kiln/internal/selfupdate"
)

const (
	// DefaultHTTPTimeout bounds each release or API request.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultTheme is the prompt theme used when ui.theme is unset.
	DefaultTheme = "default"
)

type (
	// Config is the complete kiln configuration.
	Config struct {
		Self  SelfConfig  `json:"self" mapstructure:"self"`
		Shims ShimsConfig `json:"shims" mapstructure:"shims"`
		UI    UIConfig    `json:"ui" mapstructure:"ui"`
	}

	// SelfConfig controls installation and self-update.
	SelfConfig struct {
		ReleaseURL    string        `json:"release_url" mapstructure:"release_url"`
		APIURL        string        `json:"api_url" mapstructure:"api_url"`
		SourceModule  string        `json:"source_module" mapstructure:"source_module"`
		HTTPTimeout   time.Duration `json:"http_timeout" mapstructure:"http_timeout"`
		NoAutoInstall bool          `json:"no_auto_install" mapstructure:"no_auto_install"`
		Toolchain     string        `json:"toolchain" mapstructure:"toolchain"`
	}

	// ShimsConfig lists the shims bootstrap guarantees.
	ShimsConfig struct {
		Core []string `json:"core" mapstructure:"core"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose bool   `json:"verbose" mapstructure:"verbose"`
		Theme   string `json:"theme" mapstructure:"theme"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Self: SelfConfig{
			ReleaseURL:   selfupdate.DefaultReleaseURL,
			APIURL:       selfupdate.DefaultAPIURL,
			SourceModule: selfupdate.DefaultSourceModule,
			HTTPTimeout:  DefaultHTTPTimeout,
		},
		Shims: ShimsConfig{Core: DefaultCoreShims(runtime.GOOS)},
		UI:    UIConfig{Theme: DefaultTheme},
	}
}

// DefaultCoreShims returns the interpreter shims created for goos.
func DefaultCoreShims(goos string) []string {
	names := []string{"python", "python3"}
	if goos == platform.OSWindows {
		names = append(names, "pythonw")
	}
	return names
}
