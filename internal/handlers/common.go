package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pypeit/pypeitfile/internal/storage"
)

type Handler struct {
	store *storage.FileStore
}

func New(store *storage.FileStore) *Handler {
	return &Handler{
		store: store,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) getEntryOrError(w http.ResponseWriter, name string) (*storage.Entry, bool) {
	entry, exists := h.store.Get(name)
	if !exists {
		h.writeError(w, "File not found", http.StatusNotFound)
		return nil, false
	}
	return entry, true
}
