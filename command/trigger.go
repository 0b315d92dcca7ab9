package command

import (
	"net/url"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/spf13/cobra"
)

func newTrigger() *cobra.Command {
	var (
		urlstr string
		kinds  []string
		cmd    = &cobra.Command{
			Use:           "trigger [os] [version]",
			Short:         "Queue an import on a running fwsym server",
			Args:          cobra.MaximumNArgs(2),
			SilenceErrors: true,
			SilenceUsage:  true,
			RunE: func(cmd *cobra.Command, args []string) error {
				var (
					ctx = cmd.Context()
					req = &fwsym.ImportRequest{}
					cli = new(fwsym.Client)
				)

				if len(args) > 0 {
					req.OS = args[0]
				}

				if len(args) > 1 {
					req.Version = args[1]
				}

				for _, k := range kinds {
					kind, err := fwsym.ParseKind(k)
					if err != nil {
						return fwsymerr.New(fwsymerr.KindInvalid, err)
					}

					req.Kinds = append(req.Kinds, kind)
				}

				if urlstr != "" {
					var err error
					if cli.Base, err = url.Parse(urlstr); err != nil {
						return err
					}
				}

				if err := cli.Import(ctx, req); err != nil {
					return err
				}

				return encodeJSON(cmd.OutOrStdout(), req)
			},
		}
	)

	cmd.Flags().StringVar(&urlstr, "url", "", "Base URL of the fwsym server.")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Release kinds to import.")

	return cmd
}
