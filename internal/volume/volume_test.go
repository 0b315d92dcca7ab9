package volume_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/fwsym/internal/extract"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/layout"
	"github.com/frantjc/fwsym/internal/toolchain/toolchaintest"
	"github.com/frantjc/fwsym/internal/volume"
	"github.com/frantjc/fwsym/symsorter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}
}

func sortedNames(calls []toolchaintest.SortCall) []string {
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Name
	}
	return names
}

func TestIsCache(t *testing.T) {
	assert.True(t, volume.IsCache("dyld_shared_cache_arm64e"))
	assert.False(t, volume.IsCache("dyld_shared_cache_arm64e.map"))
	assert.False(t, volume.IsCache("dyld_shared_cache_arm64e.1"))
	assert.False(t, volume.IsCache("dyld_shared_cache_arm64e.symbols"))
	assert.False(t, volume.IsCache("libSystem.B.dylib"))
}

func TestProcessDiskImage(t *testing.T) {
	var (
		ctx   = context.Background()
		mnt   = t.TempDir()
		tools = &toolchaintest.Fake{Volumes: map[string]string{"system.dmg": mnt}}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "17.0_21A329_arm64e", TempDir: t.TempDir()}
		dir   = filepath.Join(mnt, volume.CacheDir)
	)
	touch(t,
		filepath.Join(dir, "dyld_shared_cache_arm64e"),
		filepath.Join(dir, "dyld_shared_cache_arm64e.1"),
		filepath.Join(dir, "dyld_shared_cache_arm64e.map"),
		filepath.Join(dir, "dyld_shared_cache_arm64e.symbols"),
	)

	require.NoError(t, p.Process(ctx, layout.Volume{Kind: layout.DiskImage, Path: "system.dmg"}, "ios", x))

	assert.Equal(t, []string{filepath.Join(dir, "dyld_shared_cache_arm64e")}, tools.Decomposed)
	require.Len(t, tools.Sorted, 3)
	assert.Equal(t, []string{
		filepath.Join(mnt, "usr", "lib"),
		filepath.Join(mnt, "System", "Library", "AccessibilityBundles"),
	}, sortedNames(tools.Sorted[1:]))
	assert.Equal(t, []string{mnt}, tools.Mounted)
	assert.True(t, tools.Pairs())
}

func TestProcessDiskImageMacOS(t *testing.T) {
	var (
		ctx   = context.Background()
		mnt   = t.TempDir()
		tools = &toolchaintest.Fake{Volumes: map[string]string{"system.dmg": mnt}}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "macos", BundleID: "14.0_23A344_arm64e", TempDir: t.TempDir()}
	)
	touch(t,
		filepath.Join(mnt, volume.CacheDirMacOS, "dyld_shared_cache_arm64e"),
		filepath.Join(mnt, volume.CacheDirMacOS, "dyld_shared_cache_x86_64h"),
	)

	require.NoError(t, p.Process(ctx, layout.Volume{Kind: layout.DiskImage, Path: "system.dmg"}, "macos", x))
	assert.Len(t, tools.Decomposed, 2)
	assert.True(t, tools.Pairs())
}

func TestProcessDiskImageMissingCacheDir(t *testing.T) {
	var (
		ctx   = context.Background()
		mnt   = t.TempDir()
		tools = &toolchaintest.Fake{Volumes: map[string]string{"system.dmg": mnt}}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "b"}
	)

	err := p.Process(ctx, layout.Volume{Kind: layout.DiskImage, Path: "system.dmg"}, "ios", x)
	require.Error(t, err)
	assert.True(t, fwsymerr.Is(err, fwsymerr.KindExtraction))

	// Auxiliary directories are still sorted.
	assert.Len(t, tools.Sorted, 2)
	assert.True(t, tools.Pairs())
}

func TestProcessDiskImageSortFailure(t *testing.T) {
	var (
		ctx   = context.Background()
		mnt   = t.TempDir()
		tools = &toolchaintest.Fake{
			Volumes: map[string]string{"system.dmg": mnt},
			SortFunc: func(string, *symsorter.SortOpts) error {
				return errors.New("symsorter exited 1")
			},
		}
		p = &volume.Processor{Tools: tools}
		x = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "b", TempDir: t.TempDir()}
	)
	touch(t, filepath.Join(mnt, volume.CacheDir, "dyld_shared_cache_arm64e"))

	err := p.Process(ctx, layout.Volume{Kind: layout.DiskImage, Path: "system.dmg"}, "ios", x)
	require.Error(t, err)
	assert.Len(t, tools.Sorted, 3)
	assert.True(t, tools.Pairs())
}

func TestProcessDiskImageMountFailure(t *testing.T) {
	var (
		tools = &toolchaintest.Fake{}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "b"}
	)

	require.Error(t, p.Process(context.Background(), layout.Volume{Kind: layout.DiskImage, Path: "system.dmg"}, "ios", x))
	assert.Empty(t, tools.Unmounted)
	assert.Empty(t, tools.Sorted)
}

func TestWithMountedUnmountFailure(t *testing.T) {
	var (
		ctx   = context.Background()
		mnt   = t.TempDir()
		tools = &toolchaintest.Fake{
			Volumes: map[string]string{"system.dmg": mnt},
			UnmountFunc: func(string) error {
				return errors.New("resource busy")
			},
		}
		original = errors.New("original")
	)

	err := volume.WithMounted(ctx, tools, "system.dmg", func(string) error {
		return original
	})
	require.ErrorIs(t, err, original)
	assert.NotContains(t, err.Error(), "resource busy")

	err = volume.WithMounted(ctx, tools, "system.dmg", func(string) error {
		return nil
	})
	require.ErrorContains(t, err, "resource busy")

	assert.Len(t, tools.Unmounted, 2)
}

func TestProcessTree(t *testing.T) {
	var (
		ctx   = context.Background()
		tree  = t.TempDir()
		tools = &toolchaintest.Fake{}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "17.0_21A329_iPhone14,2_ota", TempDir: t.TempDir()}
	)
	touch(t,
		filepath.Join(tree, volume.CacheDir, "dyld_shared_cache_arm64e"),
		filepath.Join(tree, "usr", "lib", "libobjc.A.dylib"),
	)

	require.NoError(t, p.Process(ctx, layout.Volume{Kind: layout.Tree, Path: tree}, "ios", x))
	assert.Len(t, tools.Decomposed, 1)
	assert.Equal(t, filepath.Join(tree, "usr", "lib"), tools.Sorted[1].Name)
	assert.Len(t, tools.Sorted, 2)
	assert.Empty(t, tools.Mounted)
}

func TestProcessTreeWithoutCache(t *testing.T) {
	var (
		tools = &toolchaintest.Fake{}
		p     = &volume.Processor{Tools: tools}
		x     = &extract.Extractor{Tools: tools, Output: t.TempDir(), Prefix: "ios", BundleID: "b"}
	)

	require.NoError(t, p.Process(context.Background(), layout.Volume{Kind: layout.Tree, Path: t.TempDir()}, "ios", x))
	assert.Empty(t, tools.Decomposed)
	assert.Empty(t, tools.Sorted)
}
