package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// LoadPDF triggers the ingestion pipeline. Repeated calls are idempotent:
// once an artifact exists the document is never re-embedded.
func (h *Handler) LoadPDF(w http.ResponseWriter, r *http.Request) {
	reused, err := h.service.LoadDocument(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "pdf ingestion failed", "error", err)
		respond(w, http.StatusInternalServerError, false, "Error loading PDF.")
		return
	}

	if reused {
		respond(w, http.StatusOK, true, "Loaded existing vector store from disk.")
		return
	}
	respond(w, http.StatusOK, true, "PDF loaded and vector store created on disk.")
}

func respond(w http.ResponseWriter, status int, success bool, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]interface{}{
		"success": success,
		"message": message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
