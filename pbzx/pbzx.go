package pbzx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command represents the path to a `pbzx` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// Decompress executes `pbzx -n` with the payload segment at
// name as standard input, writing the decompressed bytes to out.
func (c Command) Decompress(ctx context.Context, name, out string) error {
	in, err := os.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "-n")
	)
	cmd.Stdin = in
	cmd.Stdout = f
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pbzx %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return f.Close()
}
