package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// encodePNG renders a solid-color image of the given size as PNG bytes.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0x7f
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerateScalesDown(t *testing.T) {
	data := encodePNG(t, 1200, 600)

	thumb, width, height, err := generate(data)
	require.NoError(t, err)

	assert.Equal(t, 1200, width)
	assert.Equal(t, 600, height)

	decoded, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx(), "longest side scaled to the box")
	assert.Equal(t, 150, decoded.Bounds().Dy(), "aspect ratio preserved")
}

func TestGenerateNeverUpscales(t *testing.T) {
	data := encodePNG(t, 120, 80)

	thumb, width, height, err := generate(data)
	require.NoError(t, err)
	assert.Equal(t, 120, width)
	assert.Equal(t, 80, height)

	decoded, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())
}

func TestGenerateRejectsGarbage(t *testing.T) {
	_, _, _, err := generate([]byte("\x89PNG\r\n\x1a\ntruncated nonsense"))
	assert.Error(t, err)
}

func TestFit(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{100, 100, 100, 100}, // already fits
		{600, 600, 300, 300},
		{600, 300, 300, 150},
		{300, 900, 100, 300},
		{600, 2, 300, 1},
	}

	for _, tc := range cases {
		gotW, gotH := fit(tc.w, tc.h)
		assert.Equal(t, tc.wantW, gotW, "width for %dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, gotH, "height for %dx%d", tc.w, tc.h)
	}
}

type workerEnv struct {
	db     *sqlite.DB
	userID string
	photo  *model.Photo
}

func newWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &model.User{Email: "g@example.com", Name: "G", PasswordHash: "x", CalendarToken: "tok"}
	require.NoError(t, db.CreateUser(ctx, user))

	plant := &model.Plant{
		UserID: user.ID, Name: "Monstera", Genus: "Monstera",
		WateringIntervalDays: 7, FertilizingIntervalDays: 30,
	}
	require.NoError(t, db.CreatePlant(ctx, plant))

	photo := &model.Photo{PlantID: plant.ID, OriginalFilename: "a.png", ContentType: "image/png"}
	return &workerEnv{db: db, userID: user.ID, photo: photo}
}

// waitForStatus polls until the photo leaves pending or the deadline hits.
func (e *workerEnv) waitForStatus(t *testing.T) string {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, err := e.db.GetPhoto(context.Background(), e.userID, e.photo.PlantID, e.photo.ID)
		require.NoError(t, err)
		if got.ThumbnailStatus != model.ThumbnailPending {
			return got.ThumbnailStatus
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("photo never left pending status")
	return ""
}

func TestWorkerGeneratesThumbnail(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	data := encodePNG(t, 800, 400)
	env.photo.Size = int64(len(data))
	require.NoError(t, env.db.CreatePhoto(ctx, env.photo, data))

	g := NewGenerator(env.db, testLogger(), 2)
	g.Start()
	t.Cleanup(g.Stop)

	g.Enqueue(env.photo.ID)

	assert.Equal(t, model.ThumbnailReady, env.waitForStatus(t))

	got, err := env.db.GetPhoto(ctx, env.userID, env.photo.PlantID, env.photo.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, got.Width)
	assert.Equal(t, 400, got.Height)

	thumb, err := env.db.GetThumbnailData(ctx, env.userID, env.photo.PlantID, env.photo.ID)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), MaxWidth)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), MaxHeight)
}

func TestWorkerMarksUndecodableFailed(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	// Sniffs as PNG at upload time but cannot be decoded.
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	env.photo.Size = int64(len(data))
	require.NoError(t, env.db.CreatePhoto(ctx, env.photo, data))

	g := NewGenerator(env.db, testLogger(), 1)
	g.Start()
	t.Cleanup(g.Stop)

	g.Enqueue(env.photo.ID)

	assert.Equal(t, model.ThumbnailFailed, env.waitForStatus(t))
}

func TestEnqueueAfterStopDoesNotBlock(t *testing.T) {
	env := newWorkerEnv(t)

	g := NewGenerator(env.db, testLogger(), 1)
	g.Start()
	g.Stop()

	done := make(chan struct{})
	go func() {
		g.Enqueue("whatever")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked after Stop")
	}
}
