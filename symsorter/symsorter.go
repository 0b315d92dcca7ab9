package symsorter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command represents the path to a `symsorter` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// SortOpts represent flags that can be passed to `symsorter`.
type SortOpts struct {
	// IgnoreErrors continues past malformed inputs.
	IgnoreErrors bool
	// Compression is how many times to pass -z. 2 is the maximum.
	Compression int
	Output      string
	Prefix      string
	BundleID    string
}

// Args returns the arguments that Sort passes to `symsorter` for the input at name.
func (o *SortOpts) Args(name string) []string {
	args := []string{}

	if o != nil {
		if o.Compression > 0 {
			args = append(args, "-"+strings.Repeat("z", o.Compression))
		}

		if o.IgnoreErrors {
			args = append(args, "--ignore-errors")
		}

		if o.Output != "" {
			args = append(args, "-o", o.Output)
		}

		if o.Prefix != "" {
			args = append(args, "--prefix", o.Prefix)
		}

		if o.BundleID != "" {
			args = append(args, "--bundle-id", o.BundleID)
		}
	}

	return append(args, name)
}

// Sort executes `symsorter` against the directory of debug files at name.
func (c Command) Sort(ctx context.Context, name string, opts *SortOpts) error {
	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), opts.Args(name)...)
	)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("symsorter %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
