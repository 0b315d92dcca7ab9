package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymhttp"
	"github.com/frantjc/fwsym/internal/fwsympubsub"
	"github.com/spf13/cobra"
	"gocloud.dev/pubsub"
	"golang.org/x/sync/errgroup"
)

func newServe(f *flags) *cobra.Command {
	var (
		address      string
		pubsuburlstr string
		cmd          = &cobra.Command{
			Use:           "serve",
			Short:         "Queue imports requested over HTTP and run them one at a time",
			Args:          cobra.NoArgs,
			SilenceErrors: true,
			SilenceUsage:  true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var (
					ctx = cmd.Context()
					log = fwsym.LoggerFrom(ctx)
				)

				p, closeBucket, err := f.Pipeline(ctx)
				if err != nil {
					return err
				}
				defer closeBucket()

				devices, err := f.Devices()
				if err != nil {
					return err
				}

				log.Info("opening topic " + pubsuburlstr)
				topic, err := pubsub.OpenTopic(ctx, pubsuburlstr)
				if err != nil {
					return err
				}
				defer topic.Shutdown(context.WithoutCancel(ctx))

				log.Info("opening subscription " + pubsuburlstr)
				subscription, err := pubsub.OpenSubscription(ctx, pubsuburlstr)
				if err != nil {
					return err
				}
				defer subscription.Shutdown(context.WithoutCancel(ctx))

				srv := &http.Server{
					ReadHeaderTimeout: time.Second * 5,
					BaseContext: func(_ net.Listener) context.Context {
						return ctx
					},
					Handler: fwsymhttp.NewHandler(topic, devices),
				}

				lis, err := net.Listen("tcp", address)
				if err != nil {
					return err
				}
				defer lis.Close()

				eg, egctx := errgroup.WithContext(ctx)

				eg.Go(func() error {
					log.Info("listening on " + address)
					if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})

				eg.Go(func() error {
					log.Info("receiving messages on " + pubsuburlstr)
					return fwsympubsub.Receive(egctx, subscription, p)
				})

				eg.Go(func() error {
					<-egctx.Done()
					return srv.Shutdown(context.WithoutCancel(egctx))
				})

				return eg.Wait()
			},
		}
	)

	cmd.Flags().StringVar(&address, "addr", ":8080", "Listen address for fwsym.")
	cmd.Flags().StringVar(&pubsuburlstr, "pubsub", "mem://fwsym", "Pubsub URL to queue imports on.")

	return cmd
}
