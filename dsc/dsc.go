// Package dsc wraps `dyld-shared-cache-extractor`, which
// splits a dyld shared cache into its individual libraries.
package dsc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command represents the path to a `dyld-shared-cache-extractor` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// Extract executes the extractor against the shared cache
// at name, writing its libraries into dir.
func (c Command) Extract(ctx context.Context, name, dir string) error {
	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), name, dir)
	)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", c, name, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
