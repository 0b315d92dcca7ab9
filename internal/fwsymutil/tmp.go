package fwsymutil

import (
	"context"
	"errors"
	"os"

	"github.com/frantjc/fwsym"
)

// WithTempDir creates a new temporary directory in dir matching pattern,
// calls fn with its path, and removes it however fn returns.
func WithTempDir(ctx context.Context, dir, pattern string, fn func(string) error) (err error) {
	tmp, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			fwsym.LoggerFrom(ctx).Error(rmErr, "remove temporary directory", "path", tmp)
			err = errors.Join(err, rmErr)
		}
	}()

	return fn(tmp)
}
