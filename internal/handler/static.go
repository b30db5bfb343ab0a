package handler

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
)

// missingBuildPage is served when the SPA bundle is absent so operators
// see an actionable page instead of a blank 500 during deployment.
const missingBuildPage = `<!DOCTYPE html>
<html>
<head><title>Storefront Proxy</title></head>
<body style="font-family:sans-serif;max-width:40em;margin:4em auto">
<h1>Frontend build not found</h1>
<p>The API server is running, but the static bundle is missing from
<code>%s</code>. Build the frontend and place its output there, then
reload this page.</p>
</body>
</html>`

// handleStatic serves the built SPA. Requests for real files get the
// file; anything else falls back to index.html so client-side routes
// resolve after a hard refresh.
func (h *Handler) handleStatic(w http.ResponseWriter, r *http.Request) {
	// Join cleans the path, so ../ segments cannot escape the static dir.
	requested := filepath.Join(h.cfg.StaticDir, filepath.Clean("/"+r.URL.Path))

	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		http.ServeFile(w, r, requested)
		return
	}

	index := filepath.Join(h.cfg.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		h.logger.Error("static bundle missing", "static_dir", h.cfg.StaticDir)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, missingBuildPage, html.EscapeString(h.cfg.StaticDir))
		return
	}
	http.ServeFile(w, r, index)
}
