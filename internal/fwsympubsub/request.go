// Package fwsympubsub queues import requests so that they
// are executed one at a time, in the order they were made.
package fwsympubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/pipeline"
	"gocloud.dev/pubsub"
)

// Opts converts req into the options of a pipeline run.
func Opts(req *fwsym.ImportRequest) *pipeline.Opts {
	return &pipeline.Opts{
		OS:      req.OS,
		Version: req.Version,
		Kinds:   req.Kinds,
	}
}

// Send queues req on topic.
func Send(ctx context.Context, topic *pubsub.Topic, req *fwsym.ImportRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"id": req.ID,
		},
	})
}

// Runner runs imports.
type Runner interface {
	Run(ctx context.Context, opts *pipeline.Opts) ([]*pipeline.Report, error)
}

// Receive runs each fwsym.ImportRequest received on subscription with runner until ctx is
// done or subscription fails. Messages are acknowledged as soon as they are
// received, as an import can outlive any acknowledgement deadline; a failed
// import is logged and picked up again by a later request.
func Receive(ctx context.Context, subscription *pubsub.Subscription, runner Runner) error {
	log := fwsym.LoggerFrom(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := subscription.Receive(ctx)
			if err != nil {
				return err
			}

			msg.Ack()

			req := &fwsym.ImportRequest{}
			if err := json.Unmarshal(msg.Body, req); err != nil {
				log.Error(fmt.Errorf("decode request: %w", err), "dropping message", "id", msg.Metadata["id"])
				continue
			}

			reqLog := log.WithValues("request", req.ID)
			reqLog.Info("running import", "os", req.OS, "version", req.Version, "kinds", req.Kinds)

			reports, err := runner.Run(fwsym.WithLogger(ctx, reqLog), Opts(req))
			if err != nil {
				reqLog.Error(err, "import failed")
				continue
			}

			for _, report := range reports {
				reqLog.Info("import finished", "kind", report.Kind, "extracted", report.Extracted, "failed", report.Failed)
			}
		}
	}
}
