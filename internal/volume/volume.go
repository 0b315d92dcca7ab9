// Package volume scans mounted disk images and unpacked
// payload trees for shared caches and libraries.
package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/layout"
	"github.com/frantjc/fwsym/internal/toolchain"
)

const (
	// CachePrefix prefixes the name of every shared cache file.
	CachePrefix = "dyld_shared_cache"
	// CacheDir is where shared caches live on every OS family but macOS.
	CacheDir = "System/Library/Caches/com.apple.dyld"
	// CacheDirMacOS is where shared caches live on macOS.
	CacheDirMacOS = "System/Library/dyld"
)

// AuxiliaryDirs hold libraries outside of the shared cache.
var AuxiliaryDirs = []string{
	"usr/lib",
	"System/Library/AccessibilityBundles",
}

// CacheDirFor returns the shared cache directory of family.
func CacheDirFor(family string) string {
	if family == fwsym.OSMacOS {
		return CacheDirMacOS
	}

	return CacheDir
}

// IsCache reports whether name is a base shared cache file. Maps and the
// numbered continuation files of large caches are not.
func IsCache(name string) bool {
	return strings.HasPrefix(name, CachePrefix) && filepath.Ext(name) == ""
}

// Caches returns the paths of the base shared cache files in dir.
func Caches(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	caches := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && IsCache(entry.Name()) {
			caches = append(caches, filepath.Join(dir, entry.Name()))
		}
	}

	return caches, nil
}

// Extractor sorts the debug files found on a volume.
type Extractor interface {
	ExtractCache(ctx context.Context, name string) error
	ExtractDir(ctx context.Context, name string) error
}

// Processor extracts the symbols of Volumes.
type Processor struct {
	Tools toolchain.Tools
}

// WithMounted mounts the disk image at name, calls fn with the path of its
// volume and unmounts it however fn returns. An unmount failure is logged
// and only returned if fn succeeded. If the mount itself fails, there is no
// volume to release, so no unmount is issued.
func WithMounted(ctx context.Context, tools toolchain.Tools, name string, fn func(string) error) (err error) {
	log := fwsym.LoggerFrom(ctx)

	log.Info("mounting image", "path", name)
	volume, err := tools.Mount(ctx, name)
	if err != nil {
		return fmt.Errorf("mount %s: %w", name, err)
	}
	defer func() {
		log.Info("unmounting image", "path", name, "volume", volume)
		if uerr := tools.Unmount(ctx, volume); uerr != nil {
			log.Error(uerr, "unmount image", "volume", volume)
			if err == nil {
				err = fmt.Errorf("unmount %s: %w", volume, uerr)
			}
		}
	}()

	return fn(volume)
}

// Process extracts the symbols of vol, a volume of a release of family, with x.
// Sibling extractions are independent of each other's failures; all of
// their errors are returned together.
func (p *Processor) Process(ctx context.Context, vol layout.Volume, family string, x Extractor) error {
	switch vol.Kind {
	case layout.DiskImage:
		return WithMounted(ctx, p.Tools, vol.Path, func(root string) error {
			return scan(ctx, root, family, x, true)
		})
	case layout.Tree:
		return scan(ctx, vol.Path, family, x, false)
	}

	return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("unsupported volume kind %s", vol.Kind))
}

func scan(ctx context.Context, root, family string, x Extractor, image bool) error {
	var (
		log      = fwsym.LoggerFrom(ctx)
		errs     []error
		cacheDir = filepath.Join(root, filepath.FromSlash(CacheDirFor(family)))
	)

	caches, err := Caches(cacheDir)
	switch {
	case errors.Is(err, os.ErrNotExist) && !image:
		log.Info("no shared cache to extract", "path", cacheDir)
	case err != nil:
		errs = append(errs, fwsymerr.New(fwsymerr.KindExtraction, fmt.Errorf("read shared cache directory: %w", err)))
	}

	for _, cache := range caches {
		if err := x.ExtractCache(ctx, cache); err != nil {
			errs = append(errs, err)
		}
	}

	for _, dir := range AuxiliaryDirs {
		dir = filepath.Join(root, filepath.FromSlash(dir))

		if !image {
			if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
				log.V(1).Info("skipping missing directory", "path", dir)
				continue
			}
		}

		if err := x.ExtractDir(ctx, dir); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
