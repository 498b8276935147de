package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository/sqlite"
)

// pngHeader is the 8-byte PNG signature plus a little padding; enough for
// content sniffing, not enough to decode.
var pngHeader = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

// fakeQueue records enqueued photo IDs instead of generating thumbnails.
type fakeQueue struct {
	ids []string
}

func (q *fakeQueue) Enqueue(photoID string) {
	q.ids = append(q.ids, photoID)
}

func newPhotoEnv(t *testing.T) (*PhotoService, *PlantService, *fakeQueue, *sqlite.DB, string) {
	t.Helper()

	db := newTestStore(t)
	user := &model.User{
		Email: "gardener@example.com", Name: "Gardener",
		PasswordHash: "x", CalendarToken: "tok",
	}
	require.NoError(t, db.CreateUser(context.Background(), user))

	queue := &fakeQueue{}
	photos := NewPhotoService(db, db, queue, testLogger())
	plants := NewPlantService(db, db, testLogger())
	return photos, plants, queue, db, user.ID
}

func TestUploadPhoto(t *testing.T) {
	photos, plants, queue, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	photo, err := photos.Upload(ctx, userID, plant.ID, "monstera.png", pngHeader)
	require.NoError(t, err)

	assert.Equal(t, "image/png", photo.ContentType, "content type comes from sniffing, not the filename")
	assert.Equal(t, model.ThumbnailPending, photo.ThumbnailStatus)
	assert.Equal(t, int64(len(pngHeader)), photo.Size)
	assert.Equal(t, []string{photo.ID}, queue.ids, "upload queues thumbnail generation")
}

func TestUploadPhotoRejectsNonImages(t *testing.T) {
	photos, plants, queue, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	_, err = photos.Upload(ctx, userID, plant.ID, "notes.txt", []byte("just some text, definitely not pixels"))
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = photos.Upload(ctx, userID, plant.ID, "empty.png", nil)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	assert.Empty(t, queue.ids)
}

func TestUploadPhotoRejectsOversized(t *testing.T) {
	photos, plants, _, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	big := make([]byte, MaxPhotoSize+1)
	copy(big, pngHeader)

	_, err = photos.Upload(ctx, userID, plant.ID, "huge.png", big)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUploadPhotoUnknownPlant(t *testing.T) {
	photos, _, _, _, userID := newPhotoEnv(t)

	_, err := photos.Upload(context.Background(), userID, "missing", "a.png", pngHeader)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeletePhotoClearsPlantThumbnail(t *testing.T) {
	photos, plants, _, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	photo, err := photos.Upload(ctx, userID, plant.ID, "a.png", pngHeader)
	require.NoError(t, err)
	_, err = plants.SetThumbnail(ctx, userID, plant.ID, photo.ID)
	require.NoError(t, err)

	require.NoError(t, photos.Delete(ctx, userID, plant.ID, photo.ID))

	got, err := plants.Get(ctx, userID, plant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ThumbnailID, "deleting the thumbnail photo clears the plant's reference")
	assert.Nil(t, got.ThumbnailURL)
}

func TestDeletePhotoKeepsUnrelatedThumbnail(t *testing.T) {
	photos, plants, _, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	keep, err := photos.Upload(ctx, userID, plant.ID, "keep.png", pngHeader)
	require.NoError(t, err)
	drop, err := photos.Upload(ctx, userID, plant.ID, "drop.png", pngHeader)
	require.NoError(t, err)

	_, err = plants.SetThumbnail(ctx, userID, plant.ID, keep.ID)
	require.NoError(t, err)

	require.NoError(t, photos.Delete(ctx, userID, plant.ID, drop.ID))

	got, err := plants.Get(ctx, userID, plant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ThumbnailID)
	assert.Equal(t, keep.ID, *got.ThumbnailID)
}

func TestThumbnailStatusFlow(t *testing.T) {
	photos, plants, _, db, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	photo, err := photos.Upload(ctx, userID, plant.ID, "a.png", pngHeader)
	require.NoError(t, err)

	// Pending: no bytes, status reported.
	thumb, status, err := photos.Thumbnail(ctx, userID, plant.ID, photo.ID)
	require.NoError(t, err)
	assert.Nil(t, thumb)
	assert.Equal(t, model.ThumbnailPending, status)

	// Failed: still no bytes.
	require.NoError(t, db.MarkThumbnailFailed(ctx, photo.ID))
	thumb, status, err = photos.Thumbnail(ctx, userID, plant.ID, photo.ID)
	require.NoError(t, err)
	assert.Nil(t, thumb)
	assert.Equal(t, model.ThumbnailFailed, status)

	// Ready: bytes come back.
	require.NoError(t, db.StoreThumbnail(ctx, photo.ID, []byte("jpeg bytes"), 640, 480))
	thumb, status, err = photos.Thumbnail(ctx, userID, plant.ID, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), thumb)
	assert.Equal(t, model.ThumbnailReady, status)
}

func TestOriginalRoundTrip(t *testing.T) {
	photos, plants, _, _, userID := newPhotoEnv(t)
	ctx := context.Background()

	plant, err := plants.Create(ctx, userID, validCreateInput())
	require.NoError(t, err)

	photo, err := photos.Upload(ctx, userID, plant.ID, "a.png", pngHeader)
	require.NoError(t, err)

	data, contentType, err := photos.Original(ctx, userID, plant.ID, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)
}
