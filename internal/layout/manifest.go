package layout

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"howett.net/plist"
)

const (
	// RestoreName is the name of the version manifest at the root of a full image.
	RestoreName = "Restore.plist"
	// BuildManifestName is the name of the build manifest at the root of a full image.
	BuildManifestName = "BuildManifest.plist"
	// SystemOSKey is the build manifest entry describing the system image.
	SystemOSKey = "Cryptex1,SystemOS"
)

type Restore struct {
	ProductBuildVersion           string            `plist:"ProductBuildVersion"`
	ProductVersion                string            `plist:"ProductVersion"`
	SystemRestoreImageFileSystems map[string]string `plist:"SystemRestoreImageFileSystems"`
}

type BuildManifest struct {
	BuildIdentities     []BuildIdentity `plist:"BuildIdentities"`
	ProductBuildVersion string          `plist:"ProductBuildVersion"`
	ProductVersion      string          `plist:"ProductVersion"`
}

type BuildIdentity struct {
	Manifest map[string]ManifestEntry `plist:"Manifest"`
}

type ManifestEntry struct {
	Info struct {
		Path string `plist:"Path"`
	} `plist:"Info"`
}

func decodePlist(name string, v any) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := plist.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(name), err)
	}

	return nil
}

// ReadRestore reads the Restore.plist at the root of the full image unpacked into dir.
func ReadRestore(dir string) (*Restore, error) {
	restore := &Restore{}
	return restore, decodePlist(filepath.Join(dir, RestoreName), restore)
}

// ReadBuildManifest reads the BuildManifest.plist at the root of the full image unpacked into dir.
func ReadBuildManifest(dir string) (*BuildManifest, error) {
	manifest := &BuildManifest{}
	return manifest, decodePlist(filepath.Join(dir, BuildManifestName), manifest)
}

// SystemImage returns the path of the system image relative to the
// root of the full image, as described by the first build identity.
func (m *BuildManifest) SystemImage() (string, error) {
	if len(m.BuildIdentities) == 0 {
		return "", fmt.Errorf("%s has no build identities", BuildManifestName)
	}

	entry, ok := m.BuildIdentities[0].Manifest[SystemOSKey]
	if !ok || entry.Info.Path == "" {
		return "", fmt.Errorf("%s has no %s path", BuildManifestName, SystemOSKey)
	}

	return entry.Info.Path, nil
}

// RestoreImages returns the disk images of r that exist in dir, system image first.
// The dictionary they are listed in has no order once decoded, so they are ordered
// by size, largest first: the system image dwarfs the recovery images.
func (r *Restore) RestoreImages(dir string) ([]string, error) {
	type image struct {
		name string
		size int64
	}

	images := []image{}
	for name := range r.SystemRestoreImageFileSystems {
		fi, err := os.Stat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			// Archives may leave out images, e.g. recovery ones, that they list.
			continue
		} else if err != nil {
			return nil, err
		}

		images = append(images, image{name: name, size: fi.Size()})
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("none of the system restore images that %s lists exist", RestoreName)
	}

	slices.SortFunc(images, func(a, b image) int {
		return cmp.Or(cmp.Compare(b.size, a.size), cmp.Compare(a.name, b.name))
	})

	names := make([]string, len(images))
	for i, image := range images {
		names[i] = image.name
	}

	return names, nil
}
