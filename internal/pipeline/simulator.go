package pipeline

import (
	"context"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/extract"
	"github.com/frantjc/fwsym/internal/fwsymblob"
)

// RunSimulators imports the symbols of the shared caches of runtimes that
// have not been published yet.
func (p *Pipeline) RunSimulators(ctx context.Context, runtimes []*fwsym.SimulatorRuntime) (*Report, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	var (
		log     = fwsym.LoggerFrom(ctx).WithValues("kind", fwsym.KindSimulator)
		report  = &Report{Kind: fwsym.KindSimulator}
		missing = []*fwsym.SimulatorRuntime{}
	)
	ctx = fwsym.WithLogger(ctx, log)

	for _, runtime := range runtimes {
		exists, err := fwsymblob.Exists(ctx, p.Bucket, runtime.OSName, runtime.BundleID())
		if err != nil {
			return report, err
		}

		if exists {
			log.Info("already have symbols", "bundle", runtime.BundleID())
			continue
		}

		missing = append(missing, runtime)
		report.Discovered = append(report.Discovered, runtime.BundleID())
	}

	if len(missing) == 0 {
		log.Info("nothing to import")
		return report, nil
	}

	return report, p.withOutput(ctx, report, func(output string) error {
		for _, runtime := range missing {
			log.Info("extracting symbols", "bundle", runtime.BundleID(), "host", runtime.HostVersion)

			x := &extract.Extractor{
				Tools:    p.Tools,
				Output:   output,
				Prefix:   runtime.OSName,
				BundleID: runtime.BundleID(),
				TempDir:  p.TempDir,
			}

			if err := x.ExtractCache(ctx, runtime.Path); err != nil {
				report.Failed = append(report.Failed, runtime.BundleID())
				return err
			}

			report.Extracted = append(report.Extracted, runtime.BundleID())
		}

		return nil
	})
}
