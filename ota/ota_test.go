package ota_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/fwsym/ota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	var (
		bin = filepath.Join(t.TempDir(), "ota")
		dir = t.TempDir()
	)
	// Records its arguments in its working directory.
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho \"$@\" > args\n"), 0o755))

	require.NoError(t, ota.Command(bin).Extract(context.Background(), "payload.000.out", &ota.ExtractOpts{Dir: dir}))

	b, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Equal(t, "-e * payload.000.out\n", string(b))
}

func TestExtractError(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "ota")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho bad payload >&2\nexit 1\n"), 0o755))

	err := ota.Command(bin).Extract(context.Background(), "payload.000.out", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad payload")
}
