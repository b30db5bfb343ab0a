// Package handler provides the HTTP surface of the storefront proxy: the
// internal JSON routes, the MCP admin transport, and the SPA fallback.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront-proxy/internal/config"
	"storefront-proxy/internal/model"
	"storefront-proxy/internal/wordpress"
)

// MessageStore is the persistence surface the handlers need.
type MessageStore interface {
	Append(msg model.ContactMessage) (model.ContactMessage, error)
	List() ([]model.ContactMessage, error)
	Delete(id string) error
}

// Mailer is the outbound mail surface the handlers need.
type Mailer interface {
	Configured() bool
	SendContactNotification(ctx context.Context, msg model.ContactMessage) error
	SendReply(ctx context.Context, to, subject, body string) error
	SendForward(ctx context.Context, to, subject, note string, original *model.ContactMessage) error
	SendOrderNotification(ctx context.Context, order model.OrderNotification) error
}

// MediaUploader is the direct WordPress surface the handlers need.
type MediaUploader interface {
	UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*wordpress.Media, error)
	VerifyCredentials(ctx context.Context) (*wordpress.AuthCheck, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     MessageStore
	mailer    Mailer
	wp        MediaUploader
	apiProxy  http.Handler
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// New creates a Handler. apiProxy handles every /api/* path that no
// internal route claims; it may be nil in tests that never hit it.
func New(store MessageStore, mailer Mailer, wp MediaUploader, apiProxy http.Handler, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		mailer:    mailer,
		wp:        wp,
		apiProxy:  apiProxy,
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns: the specific /api routes below
// always win over the trailing-slash proxy wildcard, so the precedence
// between internal routes and the upstream proxy lives in the route
// table itself rather than in an exclusion list.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Contact inbox
	mux.HandleFunc("POST /api/contact", h.handleContact)
	mux.HandleFunc("GET /api/messages", h.handleListMessages)
	mux.HandleFunc("DELETE /api/messages/{id}", h.handleDeleteMessage)
	mux.HandleFunc("POST /api/messages/reply", h.handleReply)
	mux.HandleFunc("POST /api/messages/forward", h.handleForward)

	// Commerce side channels
	mux.HandleFunc("POST /api/order-notification", h.handleOrderNotification)
	mux.HandleFunc("POST /api/upload-design", h.handleUploadDesign)

	// Diagnostics
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/debug-auth", h.handleDebugAuth)

	// Everything else under /api is forwarded upstream. Methods are
	// listed explicitly so each pattern is strictly more specific than
	// the "GET /" static catch-all and does not conflict with it.
	if h.apiProxy != nil {
		// "GET" patterns implicitly match HEAD as well.
		for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"} {
			mux.Handle(m+" /api/", h.apiProxy)
		}
	}

	// MCP transport - admin inbox tools over JSON-RPC. The streamable
	// handler serves GET, POST, and DELETE; the methods are listed
	// explicitly so the pattern does not conflict with "GET /" below.
	mcpHandler := h.NewMCPHandler()
	mux.Handle("GET /mcp", mcpHandler)
	mux.Handle("POST /mcp", mcpHandler)
	mux.Handle("DELETE /mcp", mcpHandler)

	// SPA static assets with index.html fallback
	mux.HandleFunc("GET /", h.handleStatic)
}

// === Response Helpers ===

type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeSuccess sends the flat {"success":true} body the frontend expects.
func (h *Handler) writeSuccess(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// writeError sends an error response, extracting the status and message
// from an APIError if one is in the chain. The body is the flat
// {"error": "..."} shape the frontend consumes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, map[string]string{"error": apiErr.Message})
}

// MaxRequestBodySize limits JSON request bodies. Base64 design uploads
// are the largest legitimate payload, so the cap is generous.
const MaxRequestBodySize = 20 << 20 // 20MB

// decodeJSON reads JSON from the request body into v.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
