package hdiutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command represents the path to an `hdiutil` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// AttachOpts represent flags that can be passed to `hdiutil attach`.
type AttachOpts struct {
	NoBrowse   bool
	ReadOnly   bool
	MountPoint string
}

// Attach executes `hdiutil attach` against the disk image at name
// and returns the path that its volume was mounted at.
func (c Command) Attach(ctx context.Context, name string, opts *AttachOpts) (string, error) {
	args := []string{"attach"}

	if opts != nil {
		if opts.NoBrowse {
			args = append(args, "-nobrowse")
		}

		if opts.ReadOnly {
			args = append(args, "-readonly")
		}

		if opts.MountPoint != "" {
			args = append(args, "-mountpoint", opts.MountPoint)
		}
	}

	args = append(args, name)

	var (
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), args...)
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("hdiutil attach %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return ParseMountPoint(stdout.String())
}

// ParseMountPoint finds the mount point in the output of `hdiutil attach`.
// Each line of the output is a tab-separated device, content hint and
// mount point, of which only the line for the mounted volume has the latter.
func ParseMountPoint(output string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if fields := strings.Split(scanner.Text(), "\t"); len(fields) >= 3 {
			if mountPoint := strings.TrimSpace(fields[2]); mountPoint != "" {
				return mountPoint, nil
			}
		}
	}

	return "", fmt.Errorf("mount point not found in hdiutil output")
}

// Detach executes `hdiutil detach` against the mounted volume.
func (c Command) Detach(ctx context.Context, volume string) error {
	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "detach", volume)
	)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hdiutil detach %s: %w: %s", volume, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
