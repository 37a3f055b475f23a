package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/kissthem/internal/auth"
	"github.com/vbonduro/kissthem/internal/domain"
	"github.com/vbonduro/kissthem/internal/service"
)

// currentUser is always present behind auth.Middleware.
func currentUser(r *http.Request) *domain.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req service.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Bad request", "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Bad request", "Invalid request body")
		return
	}

	result, err := s.photos.Process(r.Context(), req, currentUser(r))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to process image")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListGallery(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	photos, err := s.gallery.List(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to load gallery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"photos":  photos,
		"count":   len(photos),
		"user":    domain.OwnerOf(user),
	})
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")
	if err := s.gallery.DeleteOne(r.Context(), photoID, currentUser(r)); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete photo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Photo deleted successfully",
		"photoId": photoID,
	})
}

func (s *Server) handleDeleteGallery(w http.ResponseWriter, r *http.Request) {
	n, err := s.gallery.DeleteAll(r.Context(), currentUser(r))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to delete gallery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      fmt.Sprintf("Successfully deleted %d photos", n),
		"deletedCount": n,
	})
}
