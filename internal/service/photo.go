package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// MaxPhotoSize is the largest accepted upload, in bytes.
const MaxPhotoSize = 10 << 20 // 10 MiB

// allowedImageTypes are the content types accepted at upload, keyed by the
// sniffed type of the payload's leading bytes.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ThumbnailQueue schedules background thumbnail generation for a photo.
// Implemented by the thumbnail worker pool.
type ThumbnailQueue interface {
	Enqueue(photoID string)
}

// PhotoService manages photo uploads and their derived thumbnails.
type PhotoService struct {
	photos repository.PhotoRepository
	plants repository.PlantRepository
	queue  ThumbnailQueue
	logger *slog.Logger
}

// NewPhotoService creates a PhotoService.
func NewPhotoService(
	photos repository.PhotoRepository,
	plants repository.PlantRepository,
	queue ThumbnailQueue,
	logger *slog.Logger,
) *PhotoService {
	return &PhotoService{photos: photos, plants: plants, queue: queue, logger: logger}
}

// Upload stores a photo for one of the user's plants and queues thumbnail
// generation. The payload is validated by sniffing its leading bytes; a full
// decode happens later in the worker, so a payload with a plausible image
// header is accepted even if it turns out to be undecodable.
func (s *PhotoService) Upload(ctx context.Context, userID, plantID, filename string, data []byte) (*model.Photo, error) {
	if _, err := s.plants.GetPlant(ctx, userID, plantID); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, apperror.ValidationFailed("file", "is empty")
	}
	if len(data) > MaxPhotoSize {
		return nil, apperror.ValidationFailed("file", "exceeds the 10MB size limit")
	}

	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("unsupported image type %q; JPEG, PNG, GIF, and WebP are accepted", contentType))
	}

	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "photo"
	}

	photo := &model.Photo{
		PlantID:          plantID,
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
	}
	if err := s.photos.CreatePhoto(ctx, photo, data); err != nil {
		return nil, err
	}

	s.queue.Enqueue(photo.ID)

	s.logger.Info("photo uploaded",
		slog.String("photo_id", photo.ID),
		slog.String("plant_id", plantID),
		slog.Int64("size", photo.Size))

	return photo, nil
}

// Get returns a photo's metadata.
func (s *PhotoService) Get(ctx context.Context, userID, plantID, photoID string) (*model.Photo, error) {
	return s.photos.GetPhoto(ctx, userID, plantID, photoID)
}

// List returns a page of a plant's photos (newest first) and the plant's
// total photo count.
func (s *PhotoService) List(ctx context.Context, userID, plantID string, opts repository.ListOptions) ([]model.Photo, int64, error) {
	return s.photos.ListPhotos(ctx, userID, plantID, opts)
}

// Delete removes a photo. If the photo is the plant's current thumbnail, the
// reference is cleared first so the plant never points at a missing photo.
func (s *PhotoService) Delete(ctx context.Context, userID, plantID, photoID string) error {
	plant, err := s.plants.GetPlant(ctx, userID, plantID)
	if err != nil {
		return err
	}

	if plant.ThumbnailID != nil && *plant.ThumbnailID == photoID {
		plant.ThumbnailID = nil
		if err := s.plants.UpdatePlant(ctx, plant); err != nil {
			return err
		}
	}

	if err := s.photos.DeletePhoto(ctx, userID, plantID, photoID); err != nil {
		return err
	}

	s.logger.Info("photo deleted",
		slog.String("photo_id", photoID),
		slog.String("plant_id", plantID))
	return nil
}

// Original returns the original image bytes and their content type.
func (s *PhotoService) Original(ctx context.Context, userID, plantID, photoID string) ([]byte, string, error) {
	return s.photos.GetPhotoData(ctx, userID, plantID, photoID)
}

// Thumbnail returns the generated thumbnail bytes when ready. When the
// thumbnail is not ready it returns nil bytes together with the photo's
// thumbnail status, so the handler can answer 202 with a progress body.
func (s *PhotoService) Thumbnail(ctx context.Context, userID, plantID, photoID string) ([]byte, string, error) {
	photo, err := s.photos.GetPhoto(ctx, userID, plantID, photoID)
	if err != nil {
		return nil, "", err
	}

	if photo.ThumbnailStatus != model.ThumbnailReady {
		return nil, photo.ThumbnailStatus, nil
	}

	thumb, err := s.photos.GetThumbnailData(ctx, userID, plantID, photoID)
	if err != nil {
		return nil, "", err
	}
	return thumb, model.ThumbnailReady, nil
}
