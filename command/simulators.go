package command

import (
	"github.com/frantjc/fwsym/internal/simulator"
	"github.com/spf13/cobra"
)

func newSimulators(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "simulators [dir]",
		Short:         "Import the symbols of the installed simulator runtimes' shared caches",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var dir string
			if len(args) > 0 {
				dir = args[0]
			} else {
				var err error
				if dir, err = simulator.DefaultCachesDir(); err != nil {
					return err
				}
			}

			runtimes, err := simulator.Find(dir)
			if err != nil {
				return err
			}

			p, closeBucket, err := f.Pipeline(ctx)
			if err != nil {
				return err
			}
			defer closeBucket()

			report, err := p.RunSimulators(ctx, runtimes)
			if encErr := encodeJSON(cmd.OutOrStdout(), report); encErr != nil && err == nil {
				err = encErr
			}

			return err
		},
	}

	return cmd
}
