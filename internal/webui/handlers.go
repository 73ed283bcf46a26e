package webui

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lwshanbd/fuel-tracker/internal/scan"
)

// corsError writes an error response with CORS headers set
func (s *Server) corsError(w http.ResponseWriter, message string, code int) {
	s.setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with the given status
func (s *Server) jsonError(w http.ResponseWriter, code int, body map[string]any) {
	s.setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleScan accepts a receipt image upload and runs one scan attempt
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// 50MB covers high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		s.jsonError(w, http.StatusBadRequest, map[string]any{"error": "Error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, map[string]any{"error": "No file provided"})
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		s.jsonError(w, http.StatusBadRequest, map[string]any{"error": "File is too large. Maximum size is 50MB."})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		s.jsonError(w, http.StatusInternalServerError, map[string]any{"error": "Error reading file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	attempt := scan.NewAttempt(s.extractor, s.interpreter, func(message string) {
		slog.Info("Scan milestone", "message", message)
	})
	if err := attempt.ProvideImage(data, contentType); err != nil {
		s.jsonError(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	prefill, err := attempt.Run(r.Context())
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, scan.ErrNotConfigured) {
			status = http.StatusUnprocessableEntity
		}
		s.jsonError(w, status, map[string]any{
			"error":       err.Error(),
			"diagnostics": attempt.Milestones(),
		})
		return
	}

	fillUp := s.tracker.Add(prefill)

	s.setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"prefill":     prefill,
		"fill_up":     fillUp,
		"diagnostics": attempt.Milestones(),
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// contentTypeFromExt guesses a MIME type for uploads that arrive without one
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// providerByID finds a known provider descriptor
func (s *Server) providerByID(id string) (ProviderInfo, bool) {
	for _, p := range s.providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderInfo{}, false
}

// handleListProviders returns each provider's configuration state with a
// masked form of any stored key
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	type providerStatus struct {
		ID         string `json:"id"`
		Label      string `json:"label"`
		Configured bool   `json:"configured"`
		MaskedKey  string `json:"masked_key,omitempty"`
	}

	statuses := make([]providerStatus, 0, len(s.providers))
	for _, p := range s.providers {
		status := providerStatus{ID: p.ID, Label: p.Label}
		masked, found, err := s.vault.MaskedDisplay(p.ID)
		if err != nil {
			slog.Error("Error reading credential", "provider", p.ID, "error", err)
			s.corsError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		status.Configured = found
		status.MaskedKey = masked
		statuses = append(statuses, status)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statuses); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSetProviderKey stores an API key for a provider
func (s *Server) handleSetProviderKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.providerByID(id); !ok {
		s.corsError(w, "Unknown provider", http.StatusNotFound)
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		s.corsError(w, "Key is required", http.StatusBadRequest)
		return
	}

	if err := s.vault.Set(id, strings.TrimSpace(req.Key)); err != nil {
		slog.Error("Error saving credential", "provider", id, "error", err)
		s.corsError(w, "Error saving key", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteProviderKey removes a provider's API key
func (s *Server) handleDeleteProviderKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.providerByID(id); !ok {
		s.corsError(w, "Unknown provider", http.StatusNotFound)
		return
	}

	if err := s.vault.Delete(id); err != nil {
		slog.Error("Error deleting credential", "provider", id, "error", err)
		s.corsError(w, "Error deleting key", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStats returns the session fill-up summary
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.tracker.Summary()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
