// Package version exposes relkit's own build metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/relkit/internal/version.Version=v0.3.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolve returns version, commit and build time, falling back to the module
// build info when the ldflags were not set (e.g. go install).
func Resolve() (version, commit, built string) {
	version, commit, built = Version, GitCommit, BuildTime

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, built
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "unknown" && len(setting.Value) >= 7 {
				commit = setting.Value[:7]
			}
		case "vcs.time":
			if built == "unknown" {
				built = setting.Value
			}
		}
	}
	return version, commit, built
}

// String renders the one-line version banner printed by --version.
func String() string {
	v, c, b := Resolve()
	return fmt.Sprintf("relkit %s (commit %s, built %s, %s/%s)", v, c, b, runtime.GOOS, runtime.GOARCH)
}
