package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-proxy/internal/model"
)

func newTestClient(t *testing.T, upstream *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		APIURL:         upstream.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		HTTPClient:     upstream.Client(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestUploadMedia(t *testing.T) {
	var gotPath, gotUser, gotFilename, gotPartType string
	var gotData []byte

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Fatalf("parsing content type: %v", err)
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		if err != nil {
			t.Fatalf("reading multipart part: %v", err)
		}
		gotFilename = part.FileName()
		gotPartType = part.Header.Get("Content-Type")
		buf := make([]byte, 16)
		n, _ := part.Read(buf)
		gotData = buf[:n]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":         321,
			"source_url": "https://shop.example.com/wp-content/uploads/design.png",
		})
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream)
	media, err := client.UploadMedia(context.Background(), "design.png", "image/png", []byte("pngdata"))
	if err != nil {
		t.Fatalf("UploadMedia() error = %v", err)
	}

	if gotPath != "/wp/v2/media" {
		t.Errorf("upstream path = %q, want /wp/v2/media", gotPath)
	}
	if gotUser != "ck_test" {
		t.Errorf("basic auth user = %q, want ck_test", gotUser)
	}
	if gotFilename != "design.png" {
		t.Errorf("multipart filename = %q, want design.png", gotFilename)
	}
	if gotPartType != "image/png" {
		t.Errorf("multipart content type = %q, want image/png", gotPartType)
	}
	if string(gotData) != "pngdata" {
		t.Errorf("multipart payload = %q, want pngdata", gotData)
	}
	if media.ID != 321 {
		t.Errorf("media.ID = %d, want 321", media.ID)
	}
	if !strings.HasSuffix(media.SourceURL, "design.png") {
		t.Errorf("media.SourceURL = %q", media.SourceURL)
	}
}

func TestUploadMediaUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "rest_cannot_create",
			"message": "Sorry, you are not allowed to create posts as this user.",
		})
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream)
	_, err := client.UploadMedia(context.Background(), "design.png", "image/png", []byte("x"))
	if err == nil {
		t.Fatal("UploadMedia() expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "not allowed to create posts") {
		t.Errorf("Message = %q, want upstream message surfaced", apiErr.Message)
	}
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Error("expected ErrUpstreamError in chain")
	}
}

func TestUploadMediaMissingCredentials(t *testing.T) {
	client, err := New(Config{APIURL: "https://shop.example.com/wp-json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.UploadMedia(context.Background(), "a.png", "image/png", []byte("x")); err == nil {
		t.Fatal("expected error with missing credentials")
	}
}

func TestVerifyCredentials(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantOK     bool
		wantInBody string
	}{
		{
			name:   "valid credentials",
			status: http.StatusOK,
			body:   `[{"id":1}]`,
			wantOK: true,
		},
		{
			name:       "rejected credentials",
			status:     http.StatusUnauthorized,
			body:       `{"code":"woocommerce_rest_cannot_view"}`,
			wantOK:     false,
			wantInBody: "woocommerce_rest_cannot_view",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path + "?" + r.URL.RawQuery
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer upstream.Close()

			client := newTestClient(t, upstream)
			check, err := client.VerifyCredentials(context.Background())
			if err != nil {
				t.Fatalf("VerifyCredentials() error = %v", err)
			}
			if gotPath != "/wc/v3/products?per_page=1" {
				t.Errorf("upstream path = %q", gotPath)
			}
			if check.OK != tt.wantOK {
				t.Errorf("check.OK = %v, want %v", check.OK, tt.wantOK)
			}
			if check.Status != tt.status {
				t.Errorf("check.Status = %d, want %d", check.Status, tt.status)
			}
			if tt.wantInBody != "" && !strings.Contains(check.Body, tt.wantInBody) {
				t.Errorf("check.Body = %q, want %q in it", check.Body, tt.wantInBody)
			}
		})
	}
}

func TestVerifyCredentialsUnconfigured(t *testing.T) {
	client, err := New(Config{APIURL: "https://shop.example.com/wp-json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	check, err := client.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("VerifyCredentials() error = %v", err)
	}
	if check.OK || check.KeyConfigured {
		t.Errorf("check = %+v, want unconfigured result", check)
	}
}
