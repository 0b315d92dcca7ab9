package fwsym

import (
	"runtime/debug"
)

var (
	// Version is set at build time with
	// -ldflags "-X github.com/frantjc/fwsym.Version=...".
	Version = "0.0.0"
	// Prerelease is set at build time like Version.
	Prerelease = ""
)

// SemVer returns the semantic version of fwsym as
// built from Version, Prerelease and build info.
func SemVer() string {
	semver := Version

	if Prerelease != "" {
		semver = semver + "-" + Prerelease
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" {
				i := len(setting.Value)
				if i > 7 {
					i = 7
				}

				semver = semver + "+" + setting.Value[:i]
				break
			}
		}
	}

	return semver
}
