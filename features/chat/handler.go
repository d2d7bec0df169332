package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond(w, http.StatusBadRequest, false, "Please provide a message.")
		return
	}

	answer, err := h.service.Answer(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, retrieval.ErrNotReady) {
			respond(w, http.StatusBadRequest, false, "PDF not loaded yet.")
			return
		}
		slog.ErrorContext(r.Context(), "chat answer failed", "error", err)
		respond(w, http.StatusInternalServerError, false, "Error processing chat message.")
		return
	}

	respond(w, http.StatusOK, true, answer)
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
