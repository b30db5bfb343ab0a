// Package wordpress is the direct upstream client for the calls the proxy
// issues itself rather than forwards: media library uploads and the live
// credential check behind /api/debug-auth.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"storefront-proxy/internal/model"
	"storefront-proxy/internal/transport"
)

const userAgent = "storefront-proxy/1.0"

// Config holds WordPress client configuration.
type Config struct {
	// APIURL is the REST base, e.g. https://shop.example.com/wp-json.
	APIURL string

	// Media uploads authenticate with the WooCommerce consumer pair, not
	// the Application Password - a fixed choice for this endpoint.
	ConsumerKey    string
	ConsumerSecret string

	// HTTPClient overrides the upstream client, for tests.
	HTTPClient *http.Client
}

// Client issues authenticated requests against the WordPress REST API.
type Client struct {
	httpClient     *http.Client
	apiURL         string
	consumerKey    string
	consumerSecret string
}

// Media is the subset of a WordPress media object the frontend needs.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// AuthCheck is the diagnostic result of a live credential test.
type AuthCheck struct {
	Status        int    `json:"status"`
	OK            bool   `json:"ok"`
	Endpoint      string `json:"endpoint"`
	KeyConfigured bool   `json:"key_configured"`
	Body          string `json:"body,omitempty"`
}

// New creates a WordPress client. Credentials may be absent; the calls
// that need them fail with a descriptive error instead.
func New(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("WordPress API URL is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport.NewBrowserTransport(30 * time.Second),
		}
	}
	return &Client{
		httpClient:     client,
		apiURL:         strings.TrimSuffix(cfg.APIURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
	}, nil
}

// UploadMedia posts an image to the WordPress media library as multipart
// form data and returns its public URL and id.
func (c *Client) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*Media, error) {
	if c.consumerKey == "" || c.consumerSecret == "" {
		return nil, fmt.Errorf("WooCommerce credentials not configured")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// CreateFormFile would force application/octet-stream; WordPress
	// sniffs the part's content type to derive the attachment mime.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/wp/v2/media", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating media request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("WordPress media", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading media response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp.StatusCode, body)
	}

	var media Media
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, fmt.Errorf("parsing media response: %w", err)
	}
	return &media, nil
}

// VerifyCredentials tests the stored WooCommerce pair against the live
// products endpoint. Any upstream status is a diagnostic result, not an
// error - only transport failures fail the call.
func (c *Client) VerifyCredentials(ctx context.Context) (*AuthCheck, error) {
	const endpoint = "/wc/v3/products?per_page=1"

	check := &AuthCheck{
		Endpoint:      endpoint,
		KeyConfigured: c.consumerKey != "" && c.consumerSecret != "",
	}
	if !check.KeyConfigured {
		check.Body = "consumer key/secret not configured"
		return check, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating auth check request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("WooCommerce", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	check.Status = resp.StatusCode
	check.OK = resp.StatusCode < 400
	if !check.OK {
		check.Body = string(body)
	}
	return check, nil
}

// parseError converts an upstream WordPress error body to an APIError,
// surfacing the upstream message when one is present.
func (c *Client) parseError(statusCode int, body []byte) error {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	json.Unmarshal(body, &wpErr) // Best effort parse

	msg := wpErr.Message
	if msg == "" {
		msg = fmt.Sprintf("upstream returned status %d", statusCode)
	}
	return &model.APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    msg,
		StatusCode: 500,
		Err:        fmt.Errorf("%w: status %d: %s", model.ErrUpstreamError, statusCode, wpErr.Code),
	}
}
