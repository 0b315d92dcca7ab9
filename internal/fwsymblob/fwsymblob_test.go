package fwsymblob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/fwsym/internal/fwsymblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
)

func TestExists(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
	)
	defer bucket.Close()

	exists, err := fwsymblob.Exists(ctx, bucket, "ios", "17.0_21A329_arm64e")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, bucket.WriteAll(ctx, "ios/bundles/17.0_21A329_arm64e", []byte("{}"), nil))

	exists, err = fwsymblob.Exists(ctx, bucket, "ios", "17.0_21A329_arm64e")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsError(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
	)
	require.NoError(t, bucket.Close())

	_, err := fwsymblob.Exists(ctx, bucket, "ios", "17.0_21A329_arm64e")
	assert.Error(t, err)
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func TestHasFiles(t *testing.T) {
	root := t.TempDir()

	has, err := fwsymblob.HasFiles(root)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "ios", "bundles"), 0o755))

	has, err = fwsymblob.HasFiles(root)
	require.NoError(t, err)
	assert.False(t, has)

	writeFile(t, filepath.Join(root, "ios", "bundles", "x"), "x")

	has, err = fwsymblob.HasFiles(root)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPublishNoClobber(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
		root   = t.TempDir()
	)
	defer bucket.Close()

	require.NoError(t, bucket.WriteAll(ctx, "ios/bundles/existing", []byte("original"), nil))

	writeFile(t, filepath.Join(root, "ios", "bundles", "existing"), "replacement")
	writeFile(t, filepath.Join(root, "ios", "bundles", "new"), "new")
	writeFile(t, filepath.Join(root, "ios", "objects", "ab", "cdef"), "object")

	result, err := fwsymblob.Publish(ctx, bucket, root)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 1, result.Skipped)

	b, err := bucket.ReadAll(ctx, "ios/bundles/existing")
	require.NoError(t, err)
	assert.Equal(t, "original", string(b))

	b, err = bucket.ReadAll(ctx, "ios/objects/ab/cdef")
	require.NoError(t, err)
	assert.Equal(t, "object", string(b))
}

func TestPublishMarkersLast(t *testing.T) {
	var (
		ctx  = context.Background()
		root = t.TempDir()
	)

	bucket, err := fileblob.OpenBucket(t.TempDir(), nil)
	require.NoError(t, err)
	defer bucket.Close()

	// An object at ios/cd makes every write beneath it fail.
	require.NoError(t, bucket.WriteAll(ctx, "ios/cd", []byte("x"), nil))

	writeFile(t, filepath.Join(root, "ios", "bundles", "17.0_21A329_arm64e"), "{}")
	writeFile(t, filepath.Join(root, "ios", "cd", "ef0123", "debuginfo"), "debuginfo")

	_, err = fwsymblob.Publish(ctx, bucket, root)
	require.Error(t, err)

	exists, err := fwsymblob.Exists(ctx, bucket, "ios", "17.0_21A329_arm64e")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishOrder(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
		root   = t.TempDir()
	)
	defer bucket.Close()

	writeFile(t, filepath.Join(root, "ios", "bundles", "17.0_21A329_arm64e"), "{}")
	writeFile(t, filepath.Join(root, "ios", "cd", "ef0123", "debuginfo"), "debuginfo")

	result, err := fwsymblob.Publish(ctx, bucket, root)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Uploaded)

	exists, err := fwsymblob.Exists(ctx, bucket, "ios", "17.0_21A329_arm64e")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIsBundleKey(t *testing.T) {
	for key, expected := range map[string]bool{
		"ios/bundles/17.0_21A329_arm64e":   true,
		"macos/bundles/13.0_22A380_x86_64": true,
		"ios/cd/ef0123/debuginfo":          false,
		"bundles":                          false,
		"ios/bundles":                      false,
	} {
		assert.Equal(t, expected, fwsymblob.IsBundleKey(key), key)
	}
}
