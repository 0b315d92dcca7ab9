package layout

import (
	"strings"

	xstrings "github.com/frantjc/x/strings"
	"golang.org/x/mod/semver"
)

// Strategy is how the system image of a full image is found.
type Strategy int

const (
	// StrategyRestore reads the image from the legacy Restore.plist,
	// using the first (system) image and skipping the recovery images.
	StrategyRestore Strategy = iota
	// StrategyBuildManifest reads the single image from BuildManifest.plist.
	StrategyBuildManifest
)

func (s Strategy) String() string {
	switch s {
	case StrategyBuildManifest:
		return "BuildManifest"
	default:
		return "Restore"
	}
}

// AnyFamily matches every OS family in a Threshold.
const AnyFamily = "*"

// Threshold selects Strategy for releases of Family at or above Min.
// An empty Min matches every version.
type Threshold struct {
	Family   string
	Min      string
	Strategy Strategy
}

// Thresholds is consulted in order; the first match wins. A firmware
// layout change is supported by adding a row above the fallbacks.
var Thresholds = []Threshold{
	{Family: "macos", Min: "13.0", Strategy: StrategyBuildManifest},
	{Family: "macos", Strategy: StrategyRestore},
	{Family: AnyFamily, Min: "16.0", Strategy: StrategyBuildManifest},
	{Family: AnyFamily, Strategy: StrategyRestore},
}

// StrategyFor returns the Strategy of the first of Thresholds matching family and version.
func StrategyFor(family, version string) Strategy {
	for _, t := range Thresholds {
		if t.Family != AnyFamily && t.Family != family {
			continue
		}

		if t.Min == "" || AtLeast(version, t.Min) {
			return t.Strategy
		}
	}

	return StrategyRestore
}

// AtLeast reports whether version is greater than or equal to min.
// Versions that do not parse are never at least anything.
func AtLeast(version, min string) bool {
	v := canonical(version)
	if v == "" {
		return false
	}

	return semver.Compare(v, canonical(min)) >= 0
}

// canonical turns firmware versions such as "17.0" or "16.0.1.1" into
// semantic versions, dropping anything past the patch version.
func canonical(version string) string {
	version, _, _ = strings.Cut(strings.TrimSpace(version), " ")
	if parts := strings.Split(version, "."); len(parts) > 3 {
		version = strings.Join(parts[:3], ".")
	}

	return semver.Canonical(xstrings.EnsurePrefix(version, "v"))
}
