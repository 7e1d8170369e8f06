// Package version reports the dashgate build.
package version

import "runtime/debug"

// Set with -ldflags "-X github.com/carverauto/dashgate/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection
var (
	version = ""
	buildID = ""
)

// GetVersion returns the ldflags version, else the module version recorded by
// `go install`, else "dev".
func GetVersion() string {
	if version != "" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return "dev"
}

// GetBuildID returns the ldflags build id, else the VCS revision, else "dev".
func GetBuildID() string {
	if buildID != "" {
		return buildID
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}

	return "dev"
}

func GetFullVersion() string {
	return GetVersion() + " (build: " + GetBuildID() + ")"
}
