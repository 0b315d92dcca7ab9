// Package ipsw wraps the parts of the `ipsw` executable
// needed to decrypt AEA-encrypted disk images.
package ipsw

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// ExtAEA is the extension of Apple Encrypted Archives.
	ExtAEA = ".aea"
)

// Command represents the path to an `ipsw` executable.
type Command string

// String returns the path to the executable.
func (c Command) String() string {
	return string(c)
}

// AEAKey executes `ipsw fw aea --key` to retrieve the
// private key of the encrypted archive at name.
func (c Command) AEAKey(ctx context.Context, name string) (string, error) {
	var (
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "fw", "aea", "--key", name)
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ipsw fw aea --key %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	var key string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			key = line
		}
	}

	if key == "" {
		return "", fmt.Errorf("key not found for %s", name)
	}

	return key, nil
}

// DecryptedName returns the name of the plaintext sibling of
// the encrypted archive at name, i.e. name without ExtAEA.
func DecryptedName(name string) string {
	return strings.TrimSuffix(name, ExtAEA)
}

// DecryptAEA executes `ipsw fw aea` to decrypt the archive at name with key.
// The plaintext is written next to name and its path is returned.
func (c Command) DecryptAEA(ctx context.Context, name, key string) (string, error) {
	var (
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "fw", "aea", "--key-val", key, name, "--output", filepath.Dir(name))
	)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ipsw fw aea %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return DecryptedName(name), nil
}
