package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/kissthem/internal/artifactstore"
	"github.com/vbonduro/kissthem/internal/domain"
	"github.com/vbonduro/kissthem/internal/metrics"
)

// galleryRepository is the subset of the metadata store GalleryService requires.
type galleryRepository interface {
	Get(ctx context.Context, id string) (*domain.Photo, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Photo, error)
	Delete(ctx context.Context, id string) error
}

type GalleryService struct {
	photos    galleryRepository
	artifacts artifactstore.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewGalleryService(photos galleryRepository, artifacts artifactstore.Store, m *metrics.Metrics, logger *slog.Logger) *GalleryService {
	return &GalleryService{photos: photos, artifacts: artifacts, metrics: m, logger: logger}
}

// List returns the owner's photos, newest first. It never returns a nil slice.
func (s *GalleryService) List(ctx context.Context, owner *domain.User) ([]*domain.Photo, error) {
	photos, err := s.photos.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	if photos == nil {
		photos = []*domain.Photo{}
	}
	return photos, nil
}

func (s *GalleryService) DeleteOne(ctx context.Context, photoID string, owner *domain.User) error {
	photo, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}
	if photo == nil {
		return fmt.Errorf("photo %s: %w", photoID, domain.ErrNotFound)
	}
	if photo.UserID != owner.ID {
		return fmt.Errorf("photo %s: %w", photoID, domain.ErrForbidden)
	}

	if err := s.deletePhoto(ctx, photo); err != nil {
		return err
	}
	s.metrics.RecordPhotosDeleted(1)
	s.logger.Info("photo deleted", "user", owner.Email, "photo_id", photoID)
	return nil
}

// DeleteAll removes every photo of owner in listing order and stops at the
// first failure.
func (s *GalleryService) DeleteAll(ctx context.Context, owner *domain.User) (int, error) {
	photos, err := s.photos.ListByUser(ctx, owner.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list photos: %w", err)
	}

	deleted := 0
	for _, photo := range photos {
		if err := s.deletePhoto(ctx, photo); err != nil {
			s.metrics.RecordPhotosDeleted(deleted)
			return 0, err
		}
		deleted++
	}

	s.metrics.RecordPhotosDeleted(deleted)
	s.logger.Info("gallery cleared", "user", owner.Email, "count", deleted)
	return deleted, nil
}

// deletePhoto removes the artifacts and then the record. An artifact that
// is already gone counts as deleted.
func (s *GalleryService) deletePhoto(ctx context.Context, photo *domain.Photo) error {
	if photo.OriginalURL != "" {
		if err := s.deleteArtifact(ctx, artifactstore.OriginalPath(photo.UserID, photo.OriginalID)); err != nil {
			return err
		}
	}
	if photo.GeneratedURL != nil && photo.GeneratedID != nil {
		if err := s.deleteArtifact(ctx, artifactstore.GeneratedPath(photo.UserID, *photo.GeneratedID)); err != nil {
			return err
		}
	}
	if err := s.photos.Delete(ctx, photo.ID); err != nil {
		return fmt.Errorf("failed to delete photo record %s: %w", photo.ID, err)
	}
	return nil
}

func (s *GalleryService) deleteArtifact(ctx context.Context, path string) error {
	err := s.artifacts.Delete(ctx, path)
	if errors.Is(err, artifactstore.ErrNotFound) {
		s.logger.Warn("artifact already missing", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", path, err)
	}
	return nil
}
