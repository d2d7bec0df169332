package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

// Answerer serves the text-only path when no image accompanies the request.
type Answerer interface {
	Answer(ctx context.Context, message string) (string, error)
}

var allowedImageTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

type Handler struct {
	service        *Service
	answerer       Answerer
	maxUploadBytes int64
}

func NewHandler(service *Service, answerer Answerer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{service: service, answerer: answerer, maxUploadBytes: maxUploadBytes}
}

// Analyze accepts a multipart form with an optional message and an optional
// image. Upload validation happens before any provider call.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respond(w, http.StatusBadRequest, false, "Upload too large or malformed form data.")
		return
	}

	message := strings.TrimSpace(r.FormValue("message"))
	file, header, err := r.FormFile("image")

	switch {
	case err == nil:
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if !allowedImageTypes[mimeType] {
			respond(w, http.StatusBadRequest, false, "Invalid file type. Only JPG, PNG, GIF, and PDF are allowed.")
			return
		}

		image, readErr := io.ReadAll(file)
		if readErr != nil {
			respond(w, http.StatusBadRequest, false, "Unable to read uploaded file.")
			return
		}

		analysis, analyzeErr := h.service.Analyze(r.Context(), mimeType, image, message)
		if analyzeErr != nil {
			h.writeFailure(w, r, analyzeErr)
			return
		}
		respond(w, http.StatusOK, true, analysis)

	case errors.Is(err, http.ErrMissingFile) && message != "":
		answer, answerErr := h.answerer.Answer(r.Context(), message)
		if answerErr != nil {
			h.writeFailure(w, r, answerErr)
			return
		}
		respond(w, http.StatusOK, true, answer)

	default:
		respond(w, http.StatusBadRequest, false, "Please provide either a message or upload a blood report.")
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, retrieval.ErrNotReady) {
		respond(w, http.StatusBadRequest, false, "PDF not loaded yet.")
		return
	}
	slog.ErrorContext(r.Context(), "report analysis failed", "error", err)
	respond(w, http.StatusInternalServerError, false, "An error occurred while processing your request. Please try again.")
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
