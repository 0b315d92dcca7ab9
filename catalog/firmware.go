package catalog

import (
	"strings"
	"time"
)

// Firmware is one entry of the release catalog.
type Firmware struct {
	Identifier          string `json:"identifier,omitempty"`
	Version             string `json:"version,omitempty"`
	BuildID             string `json:"buildid,omitempty"`
	URL                 string `json:"url,omitempty"`
	ReleaseType         string `json:"releasetype,omitempty"`
	ReleaseDate         string `json:"releasedate,omitempty"`
	PrerequisiteBuildID string `json:"prerequisitebuildid,omitempty"`
	PrerequisiteVersion string `json:"prerequisiteversion,omitempty"`
}

// Device is the catalog's listing of one device's firmware.
type Device struct {
	Name       string     `json:"name,omitempty"`
	Identifier string     `json:"identifier,omitempty"`
	Firmwares  []Firmware `json:"firmwares,omitempty"`
}

// IsBeta reports whether f is a beta release.
func (f *Firmware) IsBeta() bool {
	return strings.Contains(strings.ToLower(f.ReleaseType), "beta") ||
		strings.Contains(strings.ToLower(f.Version), "beta")
}

// HasPrerequisite reports whether f only applies on top of another build.
func (f *Firmware) HasPrerequisite() bool {
	return f.PrerequisiteBuildID != "" || f.PrerequisiteVersion != ""
}

// Released parses f.ReleaseDate, returning the zero time if it is unset or malformed.
func (f *Firmware) Released() time.Time {
	t, err := time.Parse(time.RFC3339, f.ReleaseDate)
	if err != nil {
		return time.Time{}
	}

	return t
}

type buildKey struct {
	version string
	build   string
}

func (f *Firmware) key() buildKey {
	return buildKey{version: f.Version, build: f.BuildID}
}
