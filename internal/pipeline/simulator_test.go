package pipeline_test

import (
	"context"
	"testing"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/pipeline"
	"github.com/frantjc/fwsym/internal/toolchain/toolchaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestRunSimulators(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
		tools  = &toolchaintest.Fake{}
		p      = &pipeline.Pipeline{
			Bucket:  bucket,
			Tools:   tools,
			TempDir: t.TempDir(),
		}
		runtimes = []*fwsym.SimulatorRuntime{
			{Architecture: "arm64e", BuildNumber: "21A328", HostVersion: "14.0", OSName: "ios", OSVersion: "17.0", Path: "/caches/14.0/ios/dyld_sim_shared_cache_arm64e"},
			{Architecture: "x86_64", BuildNumber: "21A328", HostVersion: "14.0", OSName: "ios", OSVersion: "17.0", Path: "/caches/14.0/ios/dyld_sim_shared_cache_x86_64"},
		}
	)
	defer bucket.Close()

	require.NoError(t, bucket.WriteAll(ctx, fwsym.BundleKey("ios", "simulator_14.0_17.0_21A328_x86_64"), []byte("{}"), nil))

	report, err := p.RunSimulators(ctx, runtimes)
	require.NoError(t, err)
	assert.Equal(t, fwsym.KindSimulator, report.Kind)
	assert.Equal(t, []string{"simulator_14.0_17.0_21A328_arm64e"}, report.Extracted)
	assert.Equal(t, []string{"/caches/14.0/ios/dyld_sim_shared_cache_arm64e"}, tools.Decomposed)
	require.NotNil(t, report.Published)

	exists, err := bucket.Exists(ctx, fwsym.BundleKey("ios", "simulator_14.0_17.0_21A328_arm64e"))
	require.NoError(t, err)
	assert.True(t, exists)

	report, err = p.RunSimulators(ctx, runtimes)
	require.NoError(t, err)
	assert.Empty(t, report.Discovered)
}
