package fwsymhttp_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/pubsub/mempubsub"
)

func TestClientImport(t *testing.T) {
	var (
		ctx          = context.Background()
		topic        = mempubsub.NewTopic()
		subscription = mempubsub.NewSubscription(topic, time.Minute)
		srv          = httptest.NewServer(fwsymhttp.NewHandler(topic, fwsym.Devices{
			"ios":     {{Identifier: "iPhone14,2", Architecture: "arm64e"}},
			"watchos": {{Identifier: "Watch6,1", Architecture: "arm64_32"}},
		}))
	)
	defer srv.Close()
	defer topic.Shutdown(ctx)
	defer subscription.Shutdown(ctx)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cli := &fwsym.Client{HTTPClient: srv.Client(), Base: base}
	require.NoError(t, cli.Readyz(ctx))

	req := &fwsym.ImportRequest{OS: "watchos", Version: fwsym.VersionAll, Kinds: []fwsym.Kind{fwsym.KindOTA}}
	require.NoError(t, cli.Import(ctx, req))
	assert.NotEmpty(t, req.ID)

	msg, err := subscription.Receive(ctx)
	require.NoError(t, err)
	msg.Ack()

	queued := &fwsym.ImportRequest{}
	require.NoError(t, json.Unmarshal(msg.Body, queued))
	assert.Equal(t, req, queued)

	req = &fwsym.ImportRequest{}
	require.NoError(t, cli.Import(ctx, req))
	assert.Equal(t, "ios", req.OS)
	assert.Equal(t, fwsym.VersionLatest, req.Version)
	assert.Equal(t, []fwsym.Kind{fwsym.KindIPSW}, req.Kinds)

	msg, err = subscription.Receive(ctx)
	require.NoError(t, err)
	msg.Ack()

	err = cli.Import(ctx, &fwsym.ImportRequest{OS: "macos"})
	require.ErrorContains(t, err, "http status code 400")
}
