package command

import (
	"fmt"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/pipeline"
	xslice "github.com/frantjc/x/slice"
	"github.com/spf13/cobra"
)

func newImport(f *flags) *cobra.Command {
	var (
		kinds []string
		cmd   = &cobra.Command{
			Use:   "import os [version]",
			Short: "Import the symbols of firmware releases missing from the blob store",
			Long: fmt.Sprintf(
				"Import the symbols of firmware releases missing from the blob store. version may be %q (the default), %q (%s only) or a literal version.",
				fwsym.VersionLatest, fwsym.VersionAll, fwsym.KindOTA,
			),
			Args:          cobra.RangeArgs(1, 2),
			SilenceErrors: true,
			SilenceUsage:  true,
			RunE: func(cmd *cobra.Command, args []string) error {
				var (
					ctx  = cmd.Context()
					opts = &pipeline.Opts{
						OS:      args[0],
						Version: fwsym.VersionLatest,
					}
				)

				if len(args) > 1 {
					opts.Version = args[1]
				}

				for _, k := range kinds {
					kind, err := fwsym.ParseKind(k)
					if err != nil {
						return fwsymerr.New(fwsymerr.KindInvalid, err)
					}

					if !xslice.Includes(opts.Kinds, kind) {
						opts.Kinds = append(opts.Kinds, kind)
					}
				}

				p, closeBucket, err := f.Pipeline(ctx)
				if err != nil {
					return err
				}
				defer closeBucket()

				reports, err := p.Run(ctx, opts)
				if encErr := encodeJSON(cmd.OutOrStdout(), reports); encErr != nil && err == nil {
					err = encErr
				}

				return err
			},
		}
	)

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", []string{fwsym.KindIPSW.String()}, fmt.Sprintf("Release kinds to import (%s, %s).", fwsym.KindIPSW, fwsym.KindOTA))

	return cmd
}
