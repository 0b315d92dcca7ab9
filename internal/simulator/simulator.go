// Package simulator finds the shared caches that the developer
// tools generate for each installed simulator runtime.
package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frantjc/fwsym"
)

const (
	// RuntimePrefix prefixes the directory name of each runtime's shared caches.
	RuntimePrefix = "com.apple.CoreSimulator.SimRuntime."
	// CachePrefix prefixes the name of each simulator shared cache file.
	// The architecture follows it.
	CachePrefix = "dyld_sim_shared_cache_"
)

// DefaultCachesDir returns where the developer tools keep simulator shared caches.
func DefaultCachesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "Library", "Developer", "CoreSimulator", "Caches", "dyld"), nil
}

// ParseRuntimeName parses the directory name of a runtime's shared caches,
// e.g. "com.apple.CoreSimulator.SimRuntime.iOS-17-0.21A328", into
// its OS family, OS version and build number.
func ParseRuntimeName(name string) (string, string, string, error) {
	rest, ok := strings.CutPrefix(name, RuntimePrefix)
	if !ok {
		return "", "", "", fmt.Errorf("%s is not a simulator runtime", name)
	}

	osInfo, build, ok := strings.Cut(rest, ".")
	if !ok || build == "" || strings.Contains(build, ".") {
		return "", "", "", fmt.Errorf("simulator runtime %s has no build number", name)
	}

	parts := strings.Split(osInfo, "-")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("simulator runtime %s has no version", name)
	}

	return strings.ToLower(parts[0]), strings.Join(parts[1:3], "."), build, nil
}

// IsCache reports whether name is a base simulator shared cache file.
func IsCache(name string) bool {
	return strings.HasPrefix(name, CachePrefix) && filepath.Ext(name) == ""
}

// Find returns one SimulatorRuntime per base shared cache file under dir,
// which is laid out as <host macOS version>/<runtime>/<cache>.
func Find(dir string) ([]*fwsym.SimulatorRuntime, error) {
	hosts, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	runtimes := []*fwsym.SimulatorRuntime{}
	for _, host := range hosts {
		if !host.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(dir, host.Name()))
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasPrefix(entry.Name(), RuntimePrefix) {
				continue
			}

			osName, osVersion, build, err := ParseRuntimeName(entry.Name())
			if err != nil {
				return nil, err
			}

			runtimeDir := filepath.Join(dir, host.Name(), entry.Name())

			caches, err := os.ReadDir(runtimeDir)
			if err != nil {
				return nil, err
			}

			for _, cache := range caches {
				if cache.IsDir() || !IsCache(cache.Name()) {
					continue
				}

				runtimes = append(runtimes, &fwsym.SimulatorRuntime{
					Architecture: strings.TrimPrefix(cache.Name(), CachePrefix),
					BuildNumber:  build,
					HostVersion:  host.Name(),
					OSName:       osName,
					OSVersion:    osVersion,
					Path:         filepath.Join(runtimeDir, cache.Name()),
				})
			}
		}
	}

	return runtimes, nil
}
