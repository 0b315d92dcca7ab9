package fwsym

import (
	"fmt"
	"path"
	"strings"
)

// Kind is the kind of a firmware release.
type Kind string

const (
	// KindIPSW is a full, restorable firmware image.
	KindIPSW Kind = "ipsw"
	// KindOTA is an incremental over-the-air update.
	KindOTA Kind = "ota"
	// KindSimulator is a simulator runtime's shared cache. It is
	// found on the local host rather than in the release catalog.
	KindSimulator Kind = "simulator"
)

func (k Kind) String() string {
	return string(k)
}

// ParseKind parses s into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindIPSW, KindOTA:
		return k, nil
	}

	return "", fmt.Errorf("unknown release kind %s", s)
}

const (
	// OSMacOS is the one OS family whose firmware
	// is laid out differently from the rest.
	OSMacOS = "macos"
)

const (
	// VersionLatest selects the newest non-beta release.
	VersionLatest = "latest"
	// VersionAll selects every qualifying release.
	VersionAll = "all"
)

// Release is a firmware release that symbols can be imported from.
// It is implemented only by *FullImage and *IncrementalUpdate.
type Release interface {
	// BundleID is the global deduplication key of the release.
	BundleID() string
	// Kind is the kind of the release.
	Kind() Kind
	// OS is the OS family of the release, e.g. "ios". It
	// doubles as the artifact store prefix.
	OS() string
	// Version is the OS version of the release, e.g. "17.0".
	Version() string
	// Build is the build number of the release, e.g. "21A329".
	Build() string
	// Archive is the URL or local filename of the release's archive.
	Archive() string

	release()
}

// FullImage is an IPSW.
type FullImage struct {
	OSName       string `json:"os"`
	OSVersion    string `json:"version"`
	BuildNumber  string `json:"build"`
	Architecture string `json:"architecture"`
	URL          string `json:"url"`
}

var (
	_ Release = &FullImage{}
	_ Release = &IncrementalUpdate{}
)

func (*FullImage) release() {}

func (f *FullImage) BundleID() string {
	return fmt.Sprintf("%s_%s_%s", f.OSVersion, f.BuildNumber, f.Architecture)
}

func (*FullImage) Kind() Kind {
	return KindIPSW
}

func (f *FullImage) OS() string {
	return f.OSName
}

func (f *FullImage) Version() string {
	return f.OSVersion
}

func (f *FullImage) Build() string {
	return f.BuildNumber
}

func (f *FullImage) Archive() string {
	return f.URL
}

// FullImageKey is the identity of a FullImage. Two devices that
// share a build and architecture report the same FullImage.
type FullImageKey struct {
	OS           string
	Version      string
	Build        string
	Architecture string
}

func (f *FullImage) Key() FullImageKey {
	return FullImageKey{
		OS:           f.OSName,
		Version:      f.OSVersion,
		Build:        f.BuildNumber,
		Architecture: f.Architecture,
	}
}

// ArchiveKey identifies the archive behind a FullImage.
type ArchiveKey struct {
	Build        string
	Architecture string
}

func (f *FullImage) ArchiveKey() ArchiveKey {
	return ArchiveKey{Build: f.BuildNumber, Architecture: f.Architecture}
}

// IncrementalUpdate is an OTA.
type IncrementalUpdate struct {
	Device      string `json:"device"`
	OSName      string `json:"os"`
	OSVersion   string `json:"version"`
	BuildNumber string `json:"build"`
	URL         string `json:"url"`
}

func (*IncrementalUpdate) release() {}

func (u *IncrementalUpdate) BundleID() string {
	return fmt.Sprintf("%s_%s_%s_%s", u.OSVersion, u.BuildNumber, u.Device, KindOTA)
}

func (*IncrementalUpdate) Kind() Kind {
	return KindOTA
}

func (u *IncrementalUpdate) OS() string {
	return u.OSName
}

func (u *IncrementalUpdate) Version() string {
	return u.OSVersion
}

func (u *IncrementalUpdate) Build() string {
	return u.BuildNumber
}

func (u *IncrementalUpdate) Archive() string {
	return u.URL
}

// SimulatorRuntime is a simulator runtime's shared cache
// installed alongside the developer tools of a host.
type SimulatorRuntime struct {
	Architecture string
	BuildNumber  string
	// HostVersion is the macOS version of the host
	// that the shared cache was generated for.
	HostVersion string
	OSName      string
	OSVersion   string
	// Path is the shared cache file.
	Path string
}

func (s *SimulatorRuntime) BundleID() string {
	return fmt.Sprintf("simulator_%s_%s_%s_%s", s.HostVersion, s.OSVersion, s.BuildNumber, s.Architecture)
}

// BundlesDir is the directory under each prefix that holds bundle markers.
const BundlesDir = "bundles"

// BundleKey is the artifact store key that marks
// the bundle with the given ID as published.
func BundleKey(prefix, bundleID string) string {
	return path.Join(prefix, BundlesDir, bundleID)
}
