package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/service"
)

// PhotoHandler serves photo upload, listing, image delivery, and thumbnail
// delivery.
type PhotoHandler struct {
	photos *service.PhotoService
	logger *slog.Logger
}

// NewPhotoHandler creates a PhotoHandler.
func NewPhotoHandler(photos *service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{photos: photos, logger: logger}
}

type photoListResponse struct {
	Photos []model.Photo `json:"photos"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// thumbnailProgress is the body returned while a thumbnail is not yet
// servable.
type thumbnailProgress struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleUpload accepts a multipart upload in the "file" field and stores it
// as a photo of the plant. Thumbnail generation is queued in the background;
// the response arrives before the thumbnail exists.
func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	plantID := r.PathValue("plantID")

	// Slack on top of the limit so the multipart framing does not eat into
	// the payload bytes; the service enforces the exact byte limit.
	const uploadLimit = service.MaxPhotoSize + 64<<10

	if r.ContentLength > uploadLimit {
		writeError(w, h.logger, apperror.ValidationFailed("file", "exceeds the 10MB size limit"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, uploadLimit)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeError(w, h.logger, apperror.ValidationFailed("file", "exceeds the 10MB size limit"))
			return
		}
		writeError(w, h.logger, apperror.Malformed("expected a multipart upload with a \"file\" field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, h.logger, apperror.ValidationFailed("file", "exceeds the 10MB size limit"))
			return
		}
		writeError(w, h.logger, apperror.Malformed("could not read the uploaded file"))
		return
	}

	photo, err := h.photos.Upload(r.Context(), userID, plantID, header.Filename, data)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, photo)
}

// isTooLarge reports whether err comes from the request body exceeding the
// MaxBytesReader limit. The multipart parser does not always wrap the
// *http.MaxBytesError, so the sentinel message is checked as a fallback.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// HandleList returns a page of the plant's photos, newest first.
func (h *PhotoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	opts := listOptions(r)
	photos, total, err := h.photos.List(r.Context(), userID, r.PathValue("plantID"), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	writeJSON(w, http.StatusOK, photoListResponse{
		Photos: photos,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleServe streams the original image bytes. Photo content is immutable,
// so clients may cache it indefinitely.
func (h *PhotoHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	photoID := r.PathValue("photoID")

	data, contentType, err := h.photos.Original(r.Context(), userID, r.PathValue("plantID"), photoID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", fmt.Sprintf("%q", photoID))
	w.Write(data)
}

// HandleDelete removes a photo.
func (h *PhotoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.photos.Delete(r.Context(), userID, r.PathValue("plantID"), r.PathValue("photoID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleServeThumbnail streams the generated thumbnail. While generation is
// still pending (or has failed) it answers 202 with a progress body instead,
// so clients poll rather than render a broken image.
func (h *PhotoHandler) HandleServeThumbnail(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	photoID := r.PathValue("photoID")

	thumb, status, err := h.photos.Thumbnail(r.Context(), userID, r.PathValue("plantID"), photoID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if thumb == nil {
		progress := thumbnailProgress{Status: "processing", Message: "thumbnail is being generated"}
		if status == model.ThumbnailFailed {
			progress = thumbnailProgress{Status: "failed", Message: "thumbnail could not be generated from this image"}
		}
		writeJSON(w, http.StatusAccepted, progress)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", fmt.Sprintf("%q", photoID+"-thumb"))
	w.Write(thumb)
}
