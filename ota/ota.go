package ota

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command represents the path to an `ota` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// ExtractOpts represent flags that can be passed to `ota -e`.
type ExtractOpts struct {
	// Dir is the directory to extract entries into.
	Dir string
}

// Extract executes `ota -e` against the decompressed payload at name,
// extracting every entry.
func (c Command) Extract(ctx context.Context, name string, opts *ExtractOpts) error {
	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "-e", "*", name)
	)
	cmd.Stderr = stderr

	// `ota` extracts relative to its working directory.
	if opts != nil && opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ota -e * %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
