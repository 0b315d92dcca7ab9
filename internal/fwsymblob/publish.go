package fwsymblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// HasFiles reports whether there are any regular files in the tree rooted at root.
func HasFiles(root string) (bool, error) {
	found := false

	if err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}

		return nil
	}); err != nil {
		return false, err
	}

	return found, nil
}

// PublishResult counts what Publish did.
type PublishResult struct {
	Uploaded int
	Skipped  int
}

// IsBundleKey reports whether key is a bundle marker, <prefix>/bundles/<id>,
// the object that Exists looks for.
func IsBundleKey(key string) bool {
	parts := strings.Split(key, "/")
	return len(parts) >= 3 && parts[1] == fwsym.BundlesDir
}

// Publish copies every regular file in the tree rooted at root into bucket,
// keyed by its slash-separated path relative to root. Objects that already
// exist are never overwritten. Bundle markers are copied last and only once
// every other object has been, so a bundle is never reported as existing
// while any of its objects are missing.
func Publish(ctx context.Context, bucket *blob.Bucket, root string) (*PublishResult, error) {
	var (
		log     = fwsym.LoggerFrom(ctx)
		result  = &PublishResult{}
		markers = map[string]string{}
		keys    = []string{}
	)

	copyObject := func(key, name string) error {
		copied, err := CopyIfNotExist(ctx, bucket, key, name)
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}

		if copied {
			log.V(1).Info("uploaded object", "key", key)
			result.Uploaded++
		} else {
			log.V(1).Info("object already exists", "key", key)
			result.Skipped++
		}

		return nil
	}

	if err := filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		if IsBundleKey(key) {
			markers[key] = name
			keys = append(keys, key)
			return nil
		}

		return copyObject(key, name)
	}); err != nil {
		return result, fwsymerr.New(fwsymerr.KindPublish, err)
	}

	for _, key := range keys {
		if err := copyObject(key, markers[key]); err != nil {
			return result, fwsymerr.New(fwsymerr.KindPublish, err)
		}
	}

	return result, nil
}

// CopyIfNotExist copies the file at name to key in bucket unless key
// already exists, reporting whether it did.
func CopyIfNotExist(ctx context.Context, bucket *blob.Bucket, key, name string) (bool, error) {
	if exists, err := bucket.Exists(ctx, key); err != nil {
		return false, err
	} else if exists {
		return false, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{IfNotExist: true})
	if err != nil {
		return false, err
	}

	if _, err = io.Copy(w, f); err != nil {
		_ = w.Close()
		return false, err
	}

	// The object may have been created since it was checked for.
	if err = w.Close(); gcerrors.Code(err) == gcerrors.FailedPrecondition {
		return false, nil
	} else if err != nil {
		return false, errors.Join(fmt.Errorf("close %s", key), err)
	}

	return true, nil
}
