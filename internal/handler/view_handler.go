package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ViewHandler serves the built web client. Every view route returns the
// client's index.html; other paths are looked up as static assets.
type ViewHandler struct {
	root   string
	assets http.Handler
}

func NewViewHandler(root string) *ViewHandler {
	root = strings.TrimSpace(root)
	return &ViewHandler{root: root, assets: http.FileServer(http.Dir(root))}
}

func (h *ViewHandler) Index(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.root, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.Error(w, "web client not built", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

func (h *ViewHandler) Assets(w http.ResponseWriter, r *http.Request) {
	h.assets.ServeHTTP(w, r)
}
