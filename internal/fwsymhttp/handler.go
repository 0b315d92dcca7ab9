// Package fwsymhttp triggers imports over HTTP.
package fwsymhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/frantjc/fwsym"
	"github.com/frantjc/fwsym/internal/fwsymerr"
	"github.com/frantjc/fwsym/internal/fwsympubsub"
	"github.com/frantjc/fwsym/internal/fwsymregexp"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/timewasted/go-accept-headers"
	"gocloud.dev/pubsub"
)

const (
	paramOS      = `{os:[a-z]+}`
	paramVersion = `{version}`
)

const (
	// DefaultOS is imported when a request names no OS family.
	DefaultOS = "ios"
)

type handler struct {
	Topic   *pubsub.Topic
	Devices fwsym.Devices
}

// NewHandler returns a handler that queues an import on topic for each
// request to /, /{os} or /{os}/{version}. Requests for OS families
// missing from devices are rejected.
func NewHandler(topic *pubsub.Topic, devices fwsym.Devices) http.Handler {
	var (
		h = &handler{Topic: topic, Devices: devices}
		r = chi.NewRouter()
	)

	r.Use(middleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})

	for _, pattern := range []string{
		"/",
		fmt.Sprintf("/%s", paramOS),
		fmt.Sprintf("/%s/%s", paramOS, paramVersion),
	} {
		r.Get(pattern, handleErr(h.handleImport))
		r.Post(pattern, handleErr(h.handleImport))
	}

	return r
}

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx = r.Context()
		req = &fwsym.ImportRequest{
			ID:      uuid.NewString(),
			OS:      chi.URLParam(r, "os"),
			Version: chi.URLParam(r, "version"),
		}
	)

	if req.OS == "" {
		req.OS = DefaultOS
	}

	if req.Version == "" {
		req.Version = fwsym.VersionLatest
	}

	if !fwsymregexp.IsVersion(req.Version) {
		return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("invalid version %q", req.Version))
	}

	if !fwsymregexp.IsOS(req.OS) || !h.Devices.Has(req.OS) {
		return fwsymerr.New(fwsymerr.KindInvalid, fmt.Errorf("unknown os %s", req.OS))
	}

	for _, k := range r.URL.Query()["kind"] {
		kind, err := fwsym.ParseKind(k)
		if err != nil {
			return fwsymerr.New(fwsymerr.KindInvalid, err)
		}

		req.Kinds = append(req.Kinds, kind)
	}

	if len(req.Kinds) == 0 {
		req.Kinds = []fwsym.Kind{fwsym.KindIPSW}
	}

	if err := negotiate(w, r, "application/json"); err != nil {
		return err
	}

	if err := fwsympubsub.Send(ctx, h.Topic, req); err != nil {
		return err
	}

	fwsym.LoggerFrom(ctx).Info("queued import", "request", req.ID, "os", req.OS, "version", req.Version)

	w.WriteHeader(http.StatusAccepted)

	return respondJSON(w, req, wantsPretty(r))
}

func handleErr(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handler(w, r); err != nil {
			if nErr := negotiate(w, r, "application/json"); nErr != nil {
				http.Error(w, err.Error(), fwsymerr.HTTPStatusCode(err))
				return
			}

			w.WriteHeader(fwsymerr.HTTPStatusCode(err))
			_ = respondJSON(w, map[string]string{"error": err.Error()}, wantsPretty(r))
		}
	}
}

func negotiate(w http.ResponseWriter, r *http.Request, contentType string) error {
	if accepted := r.Header.Get("Accept"); accepted != "" {
		if _, err := accept.Negotiate(accepted, contentType); err != nil {
			w.Header().Set("Accept", contentType)
			return fwsymerr.New(fwsymerr.KindInvalid, err)
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Vary", "Accept")

	return nil
}

func respondJSON(w http.ResponseWriter, a any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}

	return enc.Encode(a)
}

func wantsPretty(r *http.Request) bool {
	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))
	return pretty
}
