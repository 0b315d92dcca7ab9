package fwsymutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// MoveTree moves every regular file in the tree rooted at src to the same
// relative path under dst, creating directories as needed. src and dst
// must be on the same filesystem. If any file cannot be moved, the files
// already moved are moved back to src, so dst gains nothing from src.
func MoveTree(src, dst string) error {
	moved := map[string]string{}

	if err := filepath.WalkDir(src, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, name)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		if err := os.Rename(name, target); err != nil {
			return err
		}

		moved[target] = name
		return nil
	}); err != nil {
		for target, name := range moved {
			if rerr := os.Rename(target, name); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}

		return err
	}

	return nil
}
