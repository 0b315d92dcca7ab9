// Package toolchaintest provides a toolchain.Tools that
// works on plain directories, for use in tests.
package toolchaintest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/frantjc/fwsym/internal/toolchain"
	"github.com/frantjc/fwsym/ipsw"
	"github.com/frantjc/fwsym/symsorter"
)

// SortCall records one call to Fake.Sort.
type SortCall struct {
	Name string
	Opts symsorter.SortOpts
}

// Fake is a toolchain.Tools that records its calls. Each hook, if set,
// replaces the default behavior of the corresponding method.
type Fake struct {
	// Volumes maps disk image paths to the directories that
	// "mounting" them exposes. Mount fails for other images.
	Volumes map[string]string

	UnzipFunc     func(name, dir string) error
	DecryptFunc   func(name string) (string, error)
	UnpackFunc    func(name, dir string) error
	DecomposeFunc func(name, dir string) error
	SortFunc      func(name string, opts *symsorter.SortOpts) error
	UnmountFunc   func(volume string) error

	mu           sync.Mutex
	Unzipped     []string
	Mounted      []string
	Unmounted    []string
	Decrypted    []string
	Decompressed []string
	Unpacked     []string
	Decomposed   []string
	Sorted       []SortCall
}

var _ toolchain.Tools = &Fake{}

func (f *Fake) Unzip(_ context.Context, name, dir string) error {
	f.mu.Lock()
	f.Unzipped = append(f.Unzipped, name)
	f.mu.Unlock()

	if f.UnzipFunc != nil {
		return f.UnzipFunc(name, dir)
	}

	return nil
}

func (f *Fake) Mount(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	volume, ok := f.Volumes[name]
	if !ok {
		return "", fmt.Errorf("no volume for %s", name)
	}

	f.Mounted = append(f.Mounted, volume)

	return volume, nil
}

func (f *Fake) Unmount(_ context.Context, volume string) error {
	f.mu.Lock()
	f.Unmounted = append(f.Unmounted, volume)
	f.mu.Unlock()

	if f.UnmountFunc != nil {
		return f.UnmountFunc(volume)
	}

	return nil
}

func (f *Fake) Decrypt(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	f.Decrypted = append(f.Decrypted, name)
	f.mu.Unlock()

	if f.DecryptFunc != nil {
		return f.DecryptFunc(name)
	}

	return ipsw.DecryptedName(name), nil
}

func (f *Fake) Decompress(_ context.Context, name, out string) error {
	f.mu.Lock()
	f.Decompressed = append(f.Decompressed, name)
	f.mu.Unlock()

	b, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	return os.WriteFile(out, b, 0o644)
}

func (f *Fake) Unpack(_ context.Context, name, dir string) error {
	f.mu.Lock()
	f.Unpacked = append(f.Unpacked, name)
	f.mu.Unlock()

	if f.UnpackFunc != nil {
		return f.UnpackFunc(name, dir)
	}

	return nil
}

func (f *Fake) Decompose(_ context.Context, name, dir string) error {
	f.mu.Lock()
	f.Decomposed = append(f.Decomposed, name)
	f.mu.Unlock()

	if f.DecomposeFunc != nil {
		return f.DecomposeFunc(name, dir)
	}

	return os.WriteFile(filepath.Join(dir, filepath.Base(name)+".dylib"), []byte(name), 0o644)
}

// Sort writes the bundle index and one object per call under opts.Output.
func (f *Fake) Sort(_ context.Context, name string, opts *symsorter.SortOpts) error {
	f.mu.Lock()
	f.Sorted = append(f.Sorted, SortCall{Name: name, Opts: *opts})
	n := len(f.Sorted)
	f.mu.Unlock()

	if f.SortFunc != nil {
		return f.SortFunc(name, opts)
	}

	bundles := filepath.Join(opts.Output, opts.Prefix, "bundles")
	if err := os.MkdirAll(bundles, 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(bundles, opts.BundleID), []byte(opts.BundleID), 0o644); err != nil {
		return err
	}

	objects := filepath.Join(opts.Output, opts.Prefix, "objects", opts.BundleID)
	if err := os.MkdirAll(objects, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(objects, fmt.Sprint(n)), []byte(name), 0o644)
}

// Pairs reports whether every mounted volume was unmounted exactly once.
func (f *Fake) Pairs() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := map[string]int{}
	for _, volume := range f.Mounted {
		counts[volume]++
	}

	for _, volume := range f.Unmounted {
		counts[volume]--
	}

	for _, count := range counts {
		if count != 0 {
			return false
		}
	}

	return len(f.Mounted) == len(f.Unmounted)
}
