package fwsymutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/opencontainers/go-digest"
)

// Downloader streams remote archives to local disk.
type Downloader struct {
	HTTPClient *http.Client
}

func (d *Downloader) init() {
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
}

// IsLocal reports whether ref refers to a local file rather than a remote archive.
func IsLocal(ref string) bool {
	u, err := url.Parse(ref)
	return err != nil || u.Scheme == "" || u.Scheme == "file"
}

// LocalPath returns the path of the local file that ref refers to.
func LocalPath(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme == "file" {
		return u.Path
	}

	return ref
}

// Fetch streams the archive referenced by ref into dir, naming it after the
// last element of ref's path, and returns its local path. If ref refers to
// a local file, its path is returned as-is instead.
func (d *Downloader) Fetch(ctx context.Context, ref, dir string) (string, error) {
	if IsLocal(ref) {
		name := LocalPath(ref)
		if _, err := os.Stat(name); err != nil {
			return "", fwsymerr.New(fwsymerr.KindAcquisition, err)
		}

		return name, nil
	}

	d.init()

	u, err := url.Parse(ref)
	if err != nil {
		return "", fwsymerr.New(fwsymerr.KindAcquisition, err)
	}

	var (
		log  = fwsym.LoggerFrom(ctx)
		name = filepath.Join(dir, path.Base(u.Path))
	)

	log.Info("downloading archive", "url", ref)

	dig, err := d.download(ctx, u, name)
	if err != nil {
		_ = os.Remove(name)
		return "", fwsymerr.New(fwsymerr.KindAcquisition, fmt.Errorf("download %s: %w", ref, err))
	}

	log.Info("downloaded archive", "url", ref, "path", name, "digest", dig.String())

	return name, nil
}

func (d *Downloader) download(ctx context.Context, u *url.URL, name string) (digest.Digest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	res, err := d.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("http status code %d", res.StatusCode)
	}

	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// io.Copy moves the body in bounded chunks; archives can be many gigabytes.
	digester := digest.Canonical.Digester()
	if _, err = io.Copy(io.MultiWriter(f, digester.Hash()), res.Body); err != nil {
		return "", err
	}

	if err = f.Close(); err != nil {
		return "", err
	}

	return digester.Digest(), nil
}
