package unzip

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command represents the path to an `unzip` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// ExtractOpts represent flags that can be passed to `unzip`.
type ExtractOpts struct {
	// Patterns limits extraction to matching members.
	Patterns []string
}

// Extract executes `unzip` to extract the archive at name into dir.
func (c Command) Extract(ctx context.Context, name, dir string, opts *ExtractOpts) error {
	args := []string{"-q", "-o", name}

	if opts != nil {
		args = append(args, opts.Patterns...)
	}

	args = append(args, "-d", dir)

	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), args...)
	)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unzip %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
