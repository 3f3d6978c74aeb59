package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPAHandler serves the single-page frontend from a directory. Existing
// files are served as-is; every other path gets index.html so client-side
// routes survive a reload. Unknown /api paths stay JSON 404s.
type SPAHandler struct {
	dir   string
	files http.Handler
}

func NewSPAHandler(dir string) *SPAHandler {
	return &SPAHandler{
		dir:   dir,
		files: http.FileServer(http.Dir(dir)),
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if clean == "/api" || strings.HasPrefix(clean, "/api/") {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "no such endpoint",
		})
		return
	}

	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
	if err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
