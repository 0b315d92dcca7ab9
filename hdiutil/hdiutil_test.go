package hdiutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/fwsym/hdiutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMountPoint(t *testing.T) {
	output := "/dev/disk4          \tGUID_partition_scheme          \t\n" +
		"/dev/disk4s1        \tApple_APFS                     \t\n" +
		"/dev/disk5          \tEF57347C-0000-11AA-AA11-0030654\t\n" +
		"/dev/disk5s1        \t41504653-0000-11AA-AA11-0030654\t/Volumes/SkyF21A329.D10D101D20D201OS\n"

	mountPoint, err := hdiutil.ParseMountPoint(output)
	require.NoError(t, err)
	assert.Equal(t, "/Volumes/SkyF21A329.D10D101D20D201OS", mountPoint)
}

func TestParseMountPointMissing(t *testing.T) {
	_, err := hdiutil.ParseMountPoint("/dev/disk4\tGUID_partition_scheme\t\n")
	assert.Error(t, err)
}

func TestDetach(t *testing.T) {
	var (
		dir = t.TempDir()
		bin = filepath.Join(dir, "hdiutil")
	)
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho \"$@\" > "+filepath.Join(dir, "args")+"\n"), 0o755))

	require.NoError(t, hdiutil.Command(bin).Detach(context.Background(), "/Volumes/SkyF21A329.D10D101D20D201OS"))

	b, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Equal(t, "detach /Volumes/SkyF21A329.D10D101D20D201OS\n", string(b))
}
