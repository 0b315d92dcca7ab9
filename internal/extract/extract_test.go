package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/fwsym/internal/extract"
	"github.com/frantjc/fwsym/internal/toolchain/toolchaintest"
	"github.com/frantjc/fwsym/symsorter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCache(t *testing.T) {
	var (
		ctx   = context.Background()
		tmp   = t.TempDir()
		out   = t.TempDir()
		tools = &toolchaintest.Fake{}
		e     = &extract.Extractor{
			Tools:    tools,
			Output:   out,
			Prefix:   "ios",
			BundleID: "17.0_21A329_arm64e",
			TempDir:  tmp,
		}
	)

	require.NoError(t, e.ExtractCache(ctx, "/Volumes/Sys/System/Library/Caches/com.apple.dyld/dyld_shared_cache_arm64e"))

	require.Len(t, tools.Sorted, 1)
	assert.Equal(t, symsorter.SortOpts{
		IgnoreErrors: true,
		Compression:  extract.MaxCompression,
		Output:       out,
		Prefix:       "ios",
		BundleID:     "17.0_21A329_arm64e",
	}, tools.Sorted[0].Opts)
	assert.Equal(t, tmp, filepath.Dir(tools.Sorted[0].Name))
	assert.Equal(t, []string{"-zz", "--ignore-errors", "-o", out, "--prefix", "ios", "--bundle-id", "17.0_21A329_arm64e", "in"}, tools.Sorted[0].Opts.Args("in"))

	assert.FileExists(t, filepath.Join(out, "ios", "bundles", "17.0_21A329_arm64e"))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractCacheDecomposeFailure(t *testing.T) {
	var (
		tmp   = t.TempDir()
		tools = &toolchaintest.Fake{
			DecomposeFunc: func(string, string) error {
				return errors.New("malformed cache")
			},
		}
		e = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "b", TempDir: tmp}
	)

	err := e.ExtractCache(context.Background(), "dyld_shared_cache_arm64e")
	require.ErrorContains(t, err, "malformed cache")
	assert.Empty(t, tools.Sorted)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractDir(t *testing.T) {
	var (
		tools = &toolchaintest.Fake{}
		e     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "tvos", BundleID: "17.0_21J354_arm64"}
	)

	require.NoError(t, e.ExtractDir(context.Background(), "/Volumes/Sys/usr/lib"))
	require.Len(t, tools.Sorted, 1)
	assert.Equal(t, "/Volumes/Sys/usr/lib", tools.Sorted[0].Name)
	assert.True(t, tools.Sorted[0].Opts.IgnoreErrors)
}
