// Package layout finds the volumes to scan for symbols inside of
// an unpacked firmware archive, which differs by OS family, OS version
// and release kind.
package layout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/toolchain"
	"github.com/frantjc/fwsym/ipsw"
)

// VolumeKind is how a Volume is read.
type VolumeKind int

const (
	// DiskImage is a disk image that must be mounted to be read.
	DiskImage VolumeKind = iota
	// Tree is a plain directory.
	Tree
)

func (k VolumeKind) String() string {
	switch k {
	case Tree:
		return "Tree"
	default:
		return "DiskImage"
	}
}

// Volume is a filesystem that symbols are to be extracted from.
type Volume struct {
	Kind VolumeKind
	Path string
}

const (
	// PayloadDir is where the payload of an incremental update lives.
	PayloadDir = "AssetData/payloadv2"
	// PayloadName is the name of a single-file payload. Segmented
	// payloads suffix it with a three-digit number.
	PayloadName = "payload"
	// TreeName is the name of the directory that payloads are unpacked into.
	TreeName = "payload.tree"
)

// Adapter finds the Volumes of releases.
type Adapter struct {
	Tools toolchain.Tools
}

// Adapt returns the Volumes of release, whose archive has been unpacked into root.
func (a *Adapter) Adapt(ctx context.Context, root string, release fwsym.Release) ([]Volume, error) {
	var (
		volumes []Volume
		err     error
	)
	switch r := release.(type) {
	case *fwsym.FullImage:
		volumes, err = a.fullImage(ctx, root, r)
	case *fwsym.IncrementalUpdate:
		volumes, err = a.incrementalUpdate(ctx, root)
	default:
		return nil, fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("unsupported release %T", release))
	}
	if err != nil {
		if fwsymerr.KindOf(err) == "" {
			err = fwsymerr.New(fwsymerr.KindExtraction, err)
		}

		return nil, fmt.Errorf("adapt %s: %w", release.BundleID(), err)
	}

	return volumes, nil
}

func (a *Adapter) fullImage(ctx context.Context, root string, image *fwsym.FullImage) ([]Volume, error) {
	var (
		log     = fwsym.LoggerFrom(ctx)
		version = image.Version()
	)

	if image.OS() == fwsym.OSMacOS {
		restore, err := ReadRestore(root)
		if err != nil {
			return nil, err
		}

		version = restore.ProductVersion
		log.Info("found image", "version", restore.ProductVersion, "build", restore.ProductBuildVersion)
	}

	strategy := StrategyFor(image.OS(), version)
	log.V(1).Info("reading system image", "strategy", strategy, "version", version)

	var name string
	switch strategy {
	case StrategyBuildManifest:
		manifest, err := ReadBuildManifest(root)
		if err != nil {
			return nil, err
		}

		if name, err = manifest.SystemImage(); err != nil {
			return nil, err
		}
	case StrategyRestore:
		restore, err := ReadRestore(root)
		if err != nil {
			return nil, err
		}

		images, err := restore.RestoreImages(root)
		if err != nil {
			return nil, err
		}

		name = images[0]
		if len(images) > 1 {
			log.V(1).Info("skipping recovery images", "images", images[1:])
		}
	}

	name = filepath.Join(root, name)

	if filepath.Ext(name) == ipsw.ExtAEA {
		log.Info("decrypting image", "path", name)

		var err error
		if name, err = a.Tools.Decrypt(ctx, name); err != nil {
			return nil, err
		}
	}

	return []Volume{{Kind: DiskImage, Path: name}}, nil
}

// Segments returns the payload segments of the incremental update unpacked into root, in order.
func Segments(root string) ([]string, error) {
	dir := filepath.Join(root, filepath.FromSlash(PayloadDir))

	segments, err := filepath.Glob(filepath.Join(dir, PayloadName+".[0-9][0-9][0-9]"))
	if err != nil {
		return nil, err
	}

	if len(segments) > 0 {
		slices.Sort(segments)
		return segments, nil
	}

	single := filepath.Join(dir, PayloadName)
	if _, err := os.Stat(single); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no payload in %s", PayloadDir)
		}

		return nil, err
	}

	return []string{single}, nil
}

func (a *Adapter) incrementalUpdate(ctx context.Context, root string) ([]Volume, error) {
	log := fwsym.LoggerFrom(ctx)

	segments, err := Segments(root)
	if err != nil {
		return nil, err
	}

	tree := filepath.Join(root, TreeName)
	if err := os.MkdirAll(tree, 0o755); err != nil {
		return nil, err
	}

	for _, segment := range segments {
		out := segment + ".out"

		log.V(1).Info("decompressing payload", "segment", filepath.Base(segment))
		if err := a.Tools.Decompress(ctx, segment, out); err != nil {
			return nil, err
		}

		log.V(1).Info("unpacking payload", "segment", filepath.Base(segment))
		if err := a.Tools.Unpack(ctx, out, tree); err != nil {
			return nil, err
		}

		if err := os.Remove(out); err != nil {
			return nil, err
		}
	}

	return []Volume{{Kind: Tree, Path: tree}}, nil
}
