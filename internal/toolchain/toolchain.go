// Package toolchain abstracts the external executables that
// firmware archives are unpacked and symbolicated with.
package toolchain

import (
	"context"

	"github.com/frantjc/fwsym/dsc"
	"github.com/frantjc/fwsym/hdiutil"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/ipsw"
	"github.com/frantjc/fwsym/ota"
	"github.com/frantjc/fwsym/pbzx"
	"github.com/frantjc/fwsym/symsorter"
	"github.com/frantjc/fwsym/unzip"
)

// Tools is every external capability that the pipeline needs.
// All methods block until the underlying process exits.
type Tools interface {
	// Unzip extracts the archive at name into dir.
	Unzip(ctx context.Context, name, dir string) error
	// Mount attaches the disk image at name and returns its volume's path.
	Mount(ctx context.Context, name string) (string, error)
	// Unmount detaches the volume at the given path.
	Unmount(ctx context.Context, volume string) error
	// Decrypt decrypts the encrypted disk image at name and
	// returns the path of its plaintext sibling.
	Decrypt(ctx context.Context, name string) (string, error)
	// Decompress decompresses one payload segment at name into out.
	Decompress(ctx context.Context, name, out string) error
	// Unpack extracts every entry of the decompressed payload at name into dir.
	Unpack(ctx context.Context, name, dir string) error
	// Decompose splits the shared cache at name into individual libraries in dir.
	Decompose(ctx context.Context, name, dir string) error
	// Sort sorts the debug files in the directory at name into a bundle.
	Sort(ctx context.Context, name string, opts *symsorter.SortOpts) error
}

// Exec implements Tools by executing the configured commands.
type Exec struct {
	Unzipper  unzip.Command
	Hdiutil   hdiutil.Command
	IPSW      ipsw.Command
	PBZX      pbzx.Command
	OTA       ota.Command
	DSC       dsc.Command
	Symsorter symsorter.Command
}

// NewExec returns an Exec that finds each command on the PATH.
func NewExec() *Exec {
	return &Exec{
		Unzipper:  "unzip",
		Hdiutil:   "hdiutil",
		IPSW:      "ipsw",
		PBZX:      "pbzx",
		OTA:       "ota",
		DSC:       "dyld-shared-cache-extractor",
		Symsorter: "symsorter",
	}
}

var _ Tools = &Exec{}

func (e *Exec) Unzip(ctx context.Context, name, dir string) error {
	return fwsymerr.New(fwsymerr.KindTool, e.Unzipper.Extract(ctx, name, dir, nil))
}

func (e *Exec) Mount(ctx context.Context, name string) (string, error) {
	volume, err := e.Hdiutil.Attach(ctx, name, &hdiutil.AttachOpts{NoBrowse: true, ReadOnly: true})
	return volume, fwsymerr.New(fwsymerr.KindTool, err)
}

func (e *Exec) Unmount(ctx context.Context, volume string) error {
	return fwsymerr.New(fwsymerr.KindCleanup, e.Hdiutil.Detach(ctx, volume))
}

func (e *Exec) Decrypt(ctx context.Context, name string) (string, error) {
	key, err := e.IPSW.AEAKey(ctx, name)
	if err != nil {
		return "", fwsymerr.New(fwsymerr.KindTool, err)
	}

	plaintext, err := e.IPSW.DecryptAEA(ctx, name, key)
	return plaintext, fwsymerr.New(fwsymerr.KindTool, err)
}

func (e *Exec) Decompress(ctx context.Context, name, out string) error {
	return fwsymerr.New(fwsymerr.KindTool, e.PBZX.Decompress(ctx, name, out))
}

func (e *Exec) Unpack(ctx context.Context, name, dir string) error {
	return fwsymerr.New(fwsymerr.KindTool, e.OTA.Extract(ctx, name, &ota.ExtractOpts{Dir: dir}))
}

func (e *Exec) Decompose(ctx context.Context, name, dir string) error {
	return fwsymerr.New(fwsymerr.KindTool, e.DSC.Extract(ctx, name, dir))
}

func (e *Exec) Sort(ctx context.Context, name string, opts *symsorter.SortOpts) error {
	return fwsymerr.New(fwsymerr.KindTool, e.Symsorter.Sort(ctx, name, opts))
}
