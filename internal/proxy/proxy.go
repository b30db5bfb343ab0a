// Package proxy forwards /api/* requests to the upstream WordPress REST
// API, injecting credentials by path and relaying responses transparently.
//
// The SPA needs same-origin access to a third-party WordPress deployment:
// forwarding keeps credentials server-side and sidesteps CORS without
// hand-written wrapper endpoints for every upstream resource. Internal
// routes are registered on the mux with more specific patterns, so the
// proxy naturally only sees what nothing else claimed.
package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront-proxy/internal/transport"
)

// userAgent identifies the proxy to upstream servers.
// Required: WordPress CDN/WAF setups rate-limit requests without one.
const userAgent = "storefront-proxy/1.0"

// mountPrefix is stripped from inbound paths before targeting upstream.
const mountPrefix = "/api"

// responseSafelist is the only set of upstream response headers relayed to
// the client. Everything else is dropped: upstream cookies, infrastructure
// headers, and CORS directives would leak or conflict with our own policy.
// X-WP-Total, X-WP-TotalPages and Link carry WordPress pagination.
var responseSafelist = []string{
	"Content-Type",
	"X-WP-Total",
	"X-WP-TotalPages",
	"Link",
}

// Config holds the forwarder's dependencies.
type Config struct {
	// UpstreamURL is the WordPress REST base, e.g.
	// https://shop.example.com/wp-json (trailing slash already stripped
	// by config loading).
	UpstreamURL string
	Auth        *AuthResolver
	Logger      *slog.Logger

	// Client overrides the upstream HTTP client, for tests. Defaults to
	// a client with the browser-fingerprint transport and no overall
	// timeout: a long-hanging upstream call holds the request open.
	Client *http.Client
}

// Proxy is the generic /api/* forwarder. Implements http.Handler.
type Proxy struct {
	upstreamURL string
	auth        *AuthResolver
	client      *http.Client
	logger      *slog.Logger
}

// New creates the forwarder.
func New(cfg Config) *Proxy {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: transport.NewBrowserTransport(30 * time.Second),
		}
	}
	return &Proxy{
		upstreamURL: strings.TrimSuffix(cfg.UpstreamURL, "/"),
		auth:        cfg.Auth,
		client:      client,
		logger:      cfg.Logger,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstreamPath := strings.TrimPrefix(r.URL.Path, mountPrefix)

	target := p.upstreamURL + upstreamPath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	// Body is forwarded for mutating methods only.
	var body io.Reader
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		p.writeProxyError(w, upstreamPath, err)
		return
	}

	// A fixed outbound header set: browser-only headers like Cookie,
	// Origin and Host must not leak upstream.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if auth, ok := p.auth.Authorization(upstreamPath); ok {
		req.Header.Set("Authorization", auth)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// Network-level failure: DNS, dial, TLS. Distinct from an
		// upstream error status, which is relayed below.
		p.logger.Error("proxy request failed",
			slog.String("path", upstreamPath),
			slog.String("error", err.Error()),
		)
		p.writeProxyError(w, upstreamPath, err)
		return
	}
	defer resp.Body.Close()

	for _, name := range responseSafelist {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}

	// Status and body mirror upstream verbatim, error statuses included.
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Error("relaying upstream body failed",
			slog.String("path", upstreamPath),
			slog.String("error", err.Error()),
		)
	}
}

// writeProxyError reports a network-level proxy failure as 500 JSON with
// the attempted path, so operators can tell it apart from upstream errors.
func (p *Proxy) writeProxyError(w http.ResponseWriter, path string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"path":  path,
	})
}
