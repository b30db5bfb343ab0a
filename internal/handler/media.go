package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"storefront-proxy/internal/model"
)

// dataURIPattern matches a base64 image data-URI and captures the mime
// type and payload. Anything else is rejected before touching upstream.
var dataURIPattern = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// imageExtensions maps recognized mime types to file extensions. Unknown
// image types fall back to png.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/webp": "webp",
	"image/png":  "png",
}

// invalidImageError is the fixed 400 the frontend matches on when a
// submitted data-URI does not look like a base64 image.
func invalidImageError() *model.APIError {
	return &model.APIError{
		Code:       "VALIDATION_ERROR",
		Message:    "Invalid image format",
		StatusCode: http.StatusBadRequest,
		Err:        model.ErrInvalidRequest,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	ID      int    `json:"id"`
}

// handleUploadDesign decodes a base64 data-URI and pushes it into the
// WordPress media library, returning the media's public URL and id.
func (h *Handler) handleUploadDesign(w http.ResponseWriter, r *http.Request) {
	var req model.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.Image == "" {
		h.writeError(w, model.NewValidationError("image", "no image provided"))
		return
	}

	match := dataURIPattern.FindStringSubmatch(req.Image)
	if len(match) != 3 {
		h.writeError(w, invalidImageError())
		return
	}
	mimeType, payload := match[1], match[2]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		h.writeError(w, invalidImageError())
		return
	}

	ext, ok := imageExtensions[mimeType]
	if !ok {
		ext = "png"
	}
	filename := req.Filename
	if filename == "" {
		filename = fmt.Sprintf("design-%d.%s", time.Now().UnixMilli(), ext)
	}

	media, err := h.wp.UploadMedia(r.Context(), filename, mimeType, data)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		URL:     media.SourceURL,
		ID:      media.ID,
	})
}

// handleDebugAuth runs a live credential check against the WooCommerce
// products endpoint and returns the diagnostic result.
func (h *Handler) handleDebugAuth(w http.ResponseWriter, r *http.Request) {
	check, err := h.wp.VerifyCredentials(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, check)
}
