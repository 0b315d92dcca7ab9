package fwsym

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Client queues imports on a server started by `fwsym serve`.
type Client struct {
	HTTPClient *http.Client
	Base       *url.URL
}

func (c *Client) init() error {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Base == nil {
		var err error
		c.Base, err = url.Parse("http://localhost:8080/")
		return err
	}
	return nil
}

// Import queues req, filling in the fields that the server defaulted,
// including its ID.
func (c *Client) Import(ctx context.Context, req *ImportRequest) error {
	if err := c.init(); err != nil {
		return err
	}

	elems := []string{"/"}

	if req.OS != "" && req.Version != "" {
		elems = append(elems, req.OS, req.Version)
	} else if req.OS != "" {
		elems = append(elems, req.OS)
	} else if req.Version != "" {
		return fmt.Errorf("os is required with version %s", req.Version)
	}

	u := c.Base.JoinPath(elems...)

	query := url.Values{}
	for _, kind := range req.Kinds {
		query.Add("kind", kind.String())
	}
	u.RawQuery = query.Encode()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return err
	}

	hreq.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(hreq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted {
		body := map[string]string{}
		if err = json.NewDecoder(res.Body).Decode(&body); err == nil {
			if body["error"] != "" {
				return fmt.Errorf("http status code %d: %s", res.StatusCode, body["error"])
			}
		}

		return fmt.Errorf("http status code %d", res.StatusCode)
	}

	if err = json.NewDecoder(res.Body).Decode(req); err != nil {
		return err
	}

	return nil
}

// Readyz checks that the fwsym server at c.Base is ready to accept import requests.
func (c *Client) Readyz(ctx context.Context) error {
	if err := c.init(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base.JoinPath("/readyz").String(), nil)
	if err != nil {
		return err
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("http status code %d", res.StatusCode)
	}

	return nil
}
