// Package extract sorts the debug files of shared caches
// and library directories into symbol bundles.
package extract

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymutil"
	"github.com/frantjc/fwsym/internal/toolchain"
	"github.com/frantjc/fwsym/symsorter"
)

const (
	// MaxCompression is the highest compression level the sorter supports.
	MaxCompression = 2
)

// Extractor sorts debug files into the bundle BundleID under Prefix in Output.
type Extractor struct {
	Tools    toolchain.Tools
	Output   string
	Prefix   string
	BundleID string
	// TempDir is where shared caches are decomposed.
	// Defaults to os.TempDir.
	TempDir string
}

func (e *Extractor) sortOpts() *symsorter.SortOpts {
	return &symsorter.SortOpts{
		IgnoreErrors: true,
		Compression:  MaxCompression,
		Output:       e.Output,
		Prefix:       e.Prefix,
		BundleID:     e.BundleID,
	}
}

// ExtractCache decomposes the shared cache at name into a temporary
// directory and sorts the libraries in it into the bundle.
func (e *Extractor) ExtractCache(ctx context.Context, name string) error {
	log := fwsym.LoggerFrom(ctx).WithValues("cache", filepath.Base(name))

	return fwsymutil.WithTempDir(ctx, e.TempDir, "fwsym-dsc-", func(dir string) error {
		log.Info("decomposing shared cache")

		if err := e.Tools.Decompose(ctx, name, dir); err != nil {
			return fmt.Errorf("decompose %s: %w", name, err)
		}

		log.V(1).Info("sorting shared cache", "bundle", e.BundleID)

		if err := e.Tools.Sort(ctx, dir, e.sortOpts()); err != nil {
			return fmt.Errorf("sort %s: %w", name, err)
		}

		return nil
	})
}

// ExtractDir sorts the libraries in the directory at name into the bundle.
func (e *Extractor) ExtractDir(ctx context.Context, name string) error {
	fwsym.LoggerFrom(ctx).V(1).Info("sorting directory", "path", name, "bundle", e.BundleID)

	if err := e.Tools.Sort(ctx, name, e.sortOpts()); err != nil {
		return fmt.Errorf("sort %s: %w", name, err)
	}

	return nil
}
