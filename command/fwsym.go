package command

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"os"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/catalog"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/fwsymutil"
	"github.com/frantjc/fwsym/internal/pipeline"
	"github.com/frantjc/fwsym/internal/toolchain"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
)

// NewFwsym returns the root command for
// fwsym which acts as its CLI entrypoint.
func NewFwsym() *cobra.Command {
	var (
		f   = &flags{tools: toolchain.NewExec()}
		cmd = SetCommon(&cobra.Command{Use: "fwsym"}, fwsym.SemVer())
	)

	f.AddFlags(cmd)

	cmd.AddCommand(
		newImport(f),
		newSimulators(f),
		newServe(f),
		newTrigger(),
	)

	return cmd
}

type flags struct {
	bloburlstr    string
	catalogurlstr string
	devices       string
	tempDir       string
	noUpload      bool
	tools         *toolchain.Exec
}

func (f *flags) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.bloburlstr, "blob", os.Getenv("FWSYM_BLOB_URL"), "Blob URL to publish symbols to.")
	cmd.PersistentFlags().StringVar(&f.catalogurlstr, "catalog", catalog.DefaultURL, "Base URL of the release catalog.")
	cmd.PersistentFlags().StringVar(&f.devices, "devices", "", "YAML file of devices to check for releases.")
	cmd.PersistentFlags().StringVar(&f.tempDir, "tmp", "", "Directory to create temporary directories in.")
	cmd.PersistentFlags().BoolVar(&f.noUpload, "no-upload", false, "Extract symbols without publishing them.")

	cmd.PersistentFlags().StringVar((*string)(&f.tools.Symsorter), "symsorter", f.tools.Symsorter.String(), "Path to symsorter.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.DSC), "dsc", f.tools.DSC.String(), "Path to dyld-shared-cache-extractor.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.IPSW), "ipsw", f.tools.IPSW.String(), "Path to ipsw.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.Hdiutil), "hdiutil", f.tools.Hdiutil.String(), "Path to hdiutil.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.PBZX), "pbzx", f.tools.PBZX.String(), "Path to pbzx.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.OTA), "ota", f.tools.OTA.String(), "Path to ota.")
	cmd.PersistentFlags().StringVar((*string)(&f.tools.Unzipper), "unzip", f.tools.Unzipper.String(), "Path to unzip.")
}

var errBlobRequired = errors.New("--blob or FWSYM_BLOB_URL is required")

func (f *flags) Devices() (fwsym.Devices, error) {
	if f.devices == "" {
		return fwsym.DefaultDevices()
	}

	return fwsym.ReadDevices(f.devices)
}

func (f *flags) Pipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	log := fwsym.LoggerFrom(ctx)

	if f.bloburlstr == "" {
		return nil, nil, fwsymerr.New(fwsymerr.KindInvalid, errBlobRequired)
	}

	devices, err := f.Devices()
	if err != nil {
		return nil, nil, fwsymerr.New(fwsymerr.KindInvalid, err)
	}

	base, err := url.Parse(f.catalogurlstr)
	if err != nil {
		return nil, nil, fwsymerr.New(fwsymerr.KindInvalid, err)
	}

	log.Info("opening bucket " + f.bloburlstr)
	bucket, err := blob.OpenBucket(ctx, f.bloburlstr)
	if err != nil {
		return nil, nil, err
	}

	return &pipeline.Pipeline{
			Catalog: &catalog.Client{
				Base:    base,
				Devices: devices,
			},
			Bucket:   bucket,
			Tools:    f.tools,
			Fetcher:  &fwsymutil.Downloader{},
			TempDir:  f.tempDir,
			NoUpload: f.noUpload,
		}, func() {
			_ = bucket.Close()
		}, nil
}

func encodeJSON(w io.Writer, a any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
