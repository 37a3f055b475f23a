package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/kissthem/internal/artifactstore"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
		"service":   serviceName,
		"version":   s.version,
	})
}

func (s *Server) handleClientID(w http.ResponseWriter, r *http.Request) {
	clientID, err := s.secrets.Resolve(r.Context(), s.clientIDSecretName)
	if err != nil {
		s.logger.Error("failed to resolve oauth client id", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to get OAuth client ID")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientId": clientID})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, mimeType, err := s.files.Open(r.Context(), key)
	if err != nil {
		if !errors.Is(err, artifactstore.ErrNotFound) {
			s.logger.Warn("failed to open artifact", "path", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close artifact", "error", err)
		}
	}()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("failed to stream artifact", "path", key, "error", err)
	}
}
