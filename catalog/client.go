// Package catalog discovers firmware releases from an ipsw.me-compatible catalog.
package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/fwsymregexp"
	xslice "github.com/frantjc/x/slice"
)

const (
	// DefaultURL is the base URL of the public ipsw.me API.
	DefaultURL = "https://api.ipsw.me/v4/"
)

// Client queries the release catalog for the configured Devices.
type Client struct {
	HTTPClient *http.Client
	Base       *url.URL
	Devices    fwsym.Devices
}

func (c *Client) init() error {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Base == nil {
		var err error
		c.Base, err = url.Parse(DefaultURL)
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, u *url.URL, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("get %s: http status code %d", u, res.StatusCode)
	}

	if err = json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}

	return nil
}

// Info gets the firmware of the device with the given identifier at version,
// which may be fwsym.VersionLatest.
func (c *Client) Info(ctx context.Context, identifier, version string) ([]Firmware, error) {
	if err := c.init(); err != nil {
		return nil, err
	}

	firmwares := []Firmware{}
	if err := c.get(ctx, c.Base.JoinPath("device", identifier, version, "info"), &firmwares); err != nil {
		return nil, fwsymerr.New(fwsymerr.KindCatalog, err)
	}

	return firmwares, nil
}

// Device lists every firmware of the given kind for the device with the given identifier.
func (c *Client) Device(ctx context.Context, identifier string, kind fwsym.Kind) (*Device, error) {
	if err := c.init(); err != nil {
		return nil, err
	}

	u := c.Base.JoinPath("device", identifier)
	u.RawQuery = url.Values{"type": []string{kind.String()}}.Encode()

	device := &Device{}
	if err := c.get(ctx, u, device); err != nil {
		return nil, fwsymerr.New(fwsymerr.KindCatalog, err)
	}

	return device, nil
}

func validate(os, selector string) error {
	if !fwsymregexp.IsOS(os) {
		return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("invalid os %q", os))
	}

	if !fwsymregexp.IsVersion(selector) {
		return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("invalid version %q", selector))
	}

	return nil
}

// ListFullImages returns the distinct full images of os at selector across every
// configured device of os. selector may not be fwsym.VersionAll. Any failed
// query aborts the listing.
func (c *Client) ListFullImages(ctx context.Context, os, selector string) ([]*fwsym.FullImage, error) {
	if err := validate(os, selector); err != nil {
		return nil, err
	}

	if selector == fwsym.VersionAll {
		return nil, fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("version %s is only supported for %s", fwsym.VersionAll, fwsym.KindOTA))
	}

	var (
		log    = fwsym.LoggerFrom(ctx)
		seen   = map[fwsym.FullImageKey]bool{}
		images = []*fwsym.FullImage{}
	)

	for _, device := range c.Devices.For(os) {
		firmwares, err := c.Info(ctx, device.Identifier, selector)
		if err != nil {
			return nil, err
		}

		if len(firmwares) == 0 {
			log.V(1).Info("no firmware found", "device", device.Identifier, "version", selector)
			continue
		}

		var (
			firmware = firmwares[0]
			image    = &fwsym.FullImage{
				OSName:       os,
				OSVersion:    firmware.Version,
				BuildNumber:  firmware.BuildID,
				Architecture: device.Architecture,
				URL:          firmware.URL,
			}
		)

		if seen[image.Key()] {
			continue
		}

		seen[image.Key()] = true
		images = append(images, image)
	}

	return images, nil
}

// ListIncrementalUpdates returns the standalone, non-beta incremental updates of os
// at selector across every configured device of os, excluding any whose version and
// build are also available as a full image for the same device.
func (c *Client) ListIncrementalUpdates(ctx context.Context, os, selector string) ([]*fwsym.IncrementalUpdate, error) {
	if err := validate(os, selector); err != nil {
		return nil, err
	}

	var (
		seen    = map[string]bool{}
		updates = []*fwsym.IncrementalUpdate{}
	)

	for _, device := range c.Devices.For(os) {
		otas, err := c.Device(ctx, device.Identifier, fwsym.KindOTA)
		if err != nil {
			return nil, err
		}

		ipsws, err := c.Device(ctx, device.Identifier, fwsym.KindIPSW)
		if err != nil {
			return nil, err
		}

		fullImages := map[buildKey]bool{}
		for _, firmware := range ipsws.Firmwares {
			fullImages[firmware.key()] = true
		}

		candidates := xslice.Filter(otas.Firmwares, func(firmware Firmware, _ int) bool {
			return !firmware.IsBeta() && !firmware.HasPrerequisite()
		})

		for _, firmware := range Select(candidates, selector) {
			if fullImages[firmware.key()] {
				continue
			}

			update := &fwsym.IncrementalUpdate{
				Device:      device.Identifier,
				OSName:      os,
				OSVersion:   firmware.Version,
				BuildNumber: firmware.BuildID,
				URL:         firmware.URL,
			}

			if seen[update.BundleID()] {
				continue
			}

			seen[update.BundleID()] = true
			updates = append(updates, update)
		}
	}

	return updates, nil
}

// Select applies selector to firmwares. fwsym.VersionAll keeps every firmware,
// fwsym.VersionLatest keeps every firmware sharing the version of the most recently
// released one, and any other selector keeps firmwares of exactly that version.
func Select(firmwares []Firmware, selector string) []Firmware {
	switch selector {
	case fwsym.VersionAll:
		return firmwares
	case fwsym.VersionLatest:
		if len(firmwares) == 0 {
			return firmwares
		}

		sorted := slices.Clone(firmwares)
		slices.SortStableFunc(sorted, func(a, b Firmware) int {
			return cmp.Compare(a.Released().Unix(), b.Released().Unix())
		})

		selector = sorted[len(sorted)-1].Version
	}

	return xslice.Filter(firmwares, func(firmware Firmware, _ int) bool {
		return firmware.Version == selector
	})
}
