// Package pipeline discovers firmware releases that have not had their
// symbols published yet, extracts their symbols and publishes them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/extract"
	"github.com/frantjc/fwsym/internal/fwsymblob"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/fwsymutil"
	"github.com/frantjc/fwsym/internal/layout"
	"github.com/frantjc/fwsym/internal/toolchain"
	"github.com/frantjc/fwsym/internal/volume"
	"github.com/google/uuid"
	"gocloud.dev/blob"
)

// Catalog lists firmware releases.
type Catalog interface {
	ListFullImages(ctx context.Context, os, selector string) ([]*fwsym.FullImage, error)
	ListIncrementalUpdates(ctx context.Context, os, selector string) ([]*fwsym.IncrementalUpdate, error)
}

// Fetcher makes firmware archives available locally.
type Fetcher interface {
	Fetch(ctx context.Context, ref, dir string) (string, error)
}

// Pipeline imports the symbols of firmware releases into Bucket.
type Pipeline struct {
	Catalog Catalog
	Bucket  *blob.Bucket
	Tools   toolchain.Tools
	Fetcher Fetcher
	// TempDir is where every temporary directory is created.
	// Defaults to os.TempDir.
	TempDir string
	// NoUpload skips publishing.
	NoUpload bool
}

// Opts selects the releases that Run imports.
type Opts struct {
	OS      string
	Version string
	Kinds   []fwsym.Kind
}

// Report is what Run did for one release kind.
type Report struct {
	Kind       fwsym.Kind               `json:"kind"`
	Discovered []string                 `json:"discovered,omitempty"`
	Extracted  []string                 `json:"extracted,omitempty"`
	Failed     []string                 `json:"failed,omitempty"`
	Published  *fwsymblob.PublishResult `json:"published,omitempty"`
}

func (p *Pipeline) init() error {
	if p.Bucket == nil || p.Tools == nil {
		return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("pipeline requires a bucket and tools"))
	}

	if p.Fetcher == nil {
		p.Fetcher = &fwsymutil.Downloader{}
	}

	return nil
}

// Run imports the releases selected by opts, one kind after the other.
// Each kind runs regardless of the others' failures; their errors are
// returned together.
func (p *Pipeline) Run(ctx context.Context, opts *Opts) ([]*Report, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	if p.Catalog == nil {
		return nil, fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("pipeline requires a catalog"))
	}

	if opts == nil || opts.OS == "" {
		return nil, fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("os is required"))
	}

	var (
		version = opts.Version
		kinds   = opts.Kinds
		log     = fwsym.LoggerFrom(ctx).WithValues("run", uuid.NewString(), "os", opts.OS)
		reports = []*Report{}
		errs    []error
	)

	if version == "" {
		version = fwsym.VersionLatest
	}

	if len(kinds) == 0 {
		kinds = []fwsym.Kind{fwsym.KindIPSW}
	}

	ctx = fwsym.WithLogger(ctx, log)

	for _, kind := range kinds {
		var (
			report *Report
			err    error
		)

		switch kind {
		case fwsym.KindIPSW:
			report, err = p.runFullImages(ctx, opts.OS, version)
		case fwsym.KindOTA:
			report, err = p.runIncrementalUpdates(ctx, opts.OS, version)
		default:
			err = fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("unknown release kind %s", kind))
		}

		if report != nil {
			reports = append(reports, report)
		}

		if err != nil {
			log.Error(err, "import failed", "kind", kind)
			errs = append(errs, fmt.Errorf("import %s: %w", kind, err))
		}
	}

	return reports, errors.Join(errs...)
}

// Missing filters releases down to those without a published bundle.
func Missing[T fwsym.Release](ctx context.Context, bucket *blob.Bucket, releases []T) ([]T, error) {
	var (
		log     = fwsym.LoggerFrom(ctx)
		missing = []T{}
	)

	for _, release := range releases {
		exists, err := fwsymblob.Exists(ctx, bucket, release.OS(), release.BundleID())
		if err != nil {
			return nil, err
		}

		if exists {
			log.Info("already have symbols", "bundle", release.BundleID())
			continue
		}

		missing = append(missing, release)
	}

	return missing, nil
}

func bundleIDs[T fwsym.Release](releases []T) []string {
	ids := make([]string, len(releases))
	for i, release := range releases {
		ids[i] = release.BundleID()
	}
	return ids
}

func (p *Pipeline) runFullImages(ctx context.Context, os, version string) (*Report, error) {
	var (
		log    = fwsym.LoggerFrom(ctx).WithValues("kind", fwsym.KindIPSW)
		report = &Report{Kind: fwsym.KindIPSW}
	)
	ctx = fwsym.WithLogger(ctx, log)

	images, err := p.Catalog.ListFullImages(ctx, os, version)
	if err != nil {
		return report, err
	}

	if images, err = Missing(ctx, p.Bucket, images); err != nil {
		return report, err
	}

	report.Discovered = bundleIDs(images)
	if len(images) == 0 {
		log.Info("nothing to import")
		return report, nil
	}

	return report, p.withOutput(ctx, report, func(output string) error {
		return fwsymutil.WithTempDir(ctx, p.TempDir, "fwsym-archives-", func(archives string) error {
			fetched := map[fwsym.ArchiveKey]string{}
			for _, image := range images {
				if _, ok := fetched[image.ArchiveKey()]; ok {
					continue
				}

				log.Info("fetching archive", "bundle", image.BundleID(), "url", image.Archive())
				name, err := p.Fetcher.Fetch(ctx, image.Archive(), archives)
				if err != nil {
					return err
				}

				fetched[image.ArchiveKey()] = name
			}

			for _, image := range images {
				if err := p.extract(ctx, image, fetched[image.ArchiveKey()], output); err != nil {
					report.Failed = append(report.Failed, image.BundleID())
					return err
				}

				report.Extracted = append(report.Extracted, image.BundleID())
			}

			return nil
		})
	})
}

func (p *Pipeline) runIncrementalUpdates(ctx context.Context, os, version string) (*Report, error) {
	var (
		log    = fwsym.LoggerFrom(ctx).WithValues("kind", fwsym.KindOTA)
		report = &Report{Kind: fwsym.KindOTA}
		bulk   = version == fwsym.VersionAll
	)
	ctx = fwsym.WithLogger(ctx, log)

	updates, err := p.Catalog.ListIncrementalUpdates(ctx, os, version)
	if err != nil {
		return report, err
	}

	if updates, err = Missing(ctx, p.Bucket, updates); err != nil {
		return report, err
	}

	report.Discovered = bundleIDs(updates)
	if len(updates) == 0 {
		log.Info("nothing to import")
		return report, nil
	}

	return report, p.withOutput(ctx, report, func(output string) error {
		for _, update := range updates {
			if err := fwsymutil.WithTempDir(ctx, p.TempDir, "fwsym-archives-", func(archives string) error {
				log.Info("fetching archive", "bundle", update.BundleID(), "url", update.Archive())
				name, err := p.Fetcher.Fetch(ctx, update.Archive(), archives)
				if err != nil {
					return err
				}

				return p.extract(ctx, update, name, output)
			}); err != nil {
				report.Failed = append(report.Failed, update.BundleID())

				if !bulk {
					return err
				}

				log.Error(err, "skipping release", "bundle", update.BundleID())
				continue
			}

			report.Extracted = append(report.Extracted, update.BundleID())
		}

		return nil
	})
}

// withOutput calls fn with a temporary output root and publishes
// what fn left in it if fn succeeded.
func (p *Pipeline) withOutput(ctx context.Context, report *Report, fn func(string) error) error {
	log := fwsym.LoggerFrom(ctx)

	return fwsymutil.WithTempDir(ctx, p.TempDir, "fwsym-output-", func(output string) error {
		if err := fn(output); err != nil {
			return err
		}

		hasFiles, err := fwsymblob.HasFiles(output)
		if err != nil {
			return err
		}

		switch {
		case !hasFiles:
			log.Info("nothing to publish")
			return nil
		case p.NoUpload:
			log.Info("skipping publish")
			return nil
		}

		log.Info("publishing symbols")
		report.Published, err = fwsymblob.Publish(ctx, p.Bucket, output)
		if err != nil {
			return err
		}

		log.Info("published symbols", "uploaded", report.Published.Uploaded, "skipped", report.Published.Skipped)

		return nil
	})
}

// extract unpacks the archive at name of release and sorts its symbols
// into a staging tree, which is only moved into output once every
// volume of the release has been processed, so that output never holds
// a partial bundle.
func (p *Pipeline) extract(ctx context.Context, release fwsym.Release, name, output string) error {
	var (
		log       = fwsym.LoggerFrom(ctx).WithValues("bundle", release.BundleID())
		adapter   = &layout.Adapter{Tools: p.Tools}
		processor = &volume.Processor{Tools: p.Tools}
	)
	ctx = fwsym.WithLogger(ctx, log)

	return fwsymutil.WithTempDir(ctx, p.TempDir, "fwsym-extract-", func(dir string) error {
		var (
			root    = filepath.Join(dir, "archive")
			staging = filepath.Join(dir, "symbols")
		)

		for _, d := range []string{root, staging} {
			if err := os.Mkdir(d, 0o755); err != nil {
				return err
			}
		}

		log.Info("unpacking archive", "path", name)
		if err := p.Tools.Unzip(ctx, name, root); err != nil {
			return fmt.Errorf("unpack %s: %w", filepath.Base(name), err)
		}

		volumes, err := adapter.Adapt(ctx, root, release)
		if err != nil {
			return err
		}

		x := &extract.Extractor{
			Tools:    p.Tools,
			Output:   staging,
			Prefix:   release.OS(),
			BundleID: release.BundleID(),
			TempDir:  p.TempDir,
		}

		var errs []error
		for _, vol := range volumes {
			if err := processor.Process(ctx, vol, release.OS(), x); err != nil {
				errs = append(errs, err)
			}
		}

		if err := errors.Join(errs...); err != nil {
			return err
		}

		log.Info("extracted symbols")

		return fwsymutil.MoveTree(staging, output)
	})
}
