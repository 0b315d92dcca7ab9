package fwsymblob

import (
	"context"
	"fmt"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Exists reports whether the bundle with the given ID has been published under prefix.
// Errors other than the bundle not being found are returned rather than
// treated as the bundle being absent.
func Exists(ctx context.Context, bucket *blob.Bucket, prefix, bundleID string) (bool, error) {
	key := fwsym.BundleKey(prefix, bundleID)

	_, err := bucket.Attributes(ctx, key)
	switch gcerrors.Code(err) {
	case gcerrors.OK:
		return true, nil
	case gcerrors.NotFound:
		return false, nil
	}

	return false, fwsymerr.New(fwsymerr.KindExistence, fmt.Errorf("stat %s: %w", key, err))
}
