// Package thumbnail generates photo thumbnails in the background.
//
// Upload handlers enqueue photo IDs; a fixed pool of workers decodes the
// stored original, scales it to fit 300x300, and writes the JPEG thumbnail
// back to storage. A photo whose payload cannot be decoded is marked failed
// rather than retried.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"math"
	"sync"
	"time"

	// Register decoders for the content types accepted at upload.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

const (
	// MaxWidth and MaxHeight bound the generated thumbnail. The image is
	// scaled to fit inside the box with its aspect ratio preserved, and is
	// never upscaled.
	MaxWidth  = 300
	MaxHeight = 300

	jpegQuality = 80

	// queueSize bounds how many pending jobs Enqueue accepts before
	// dropping. Uploads are bursty but rare; 256 is generous.
	queueSize = 256

	// processTimeout caps a single decode+scale+store cycle.
	processTimeout = 30 * time.Second
)

// Generator runs the thumbnail worker pool.
type Generator struct {
	photos  repository.PhotoRepository
	logger  *slog.Logger
	workers int

	jobs      chan string
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewGenerator creates a Generator with the given worker count. Workers do
// not run until Start is called.
func NewGenerator(photos repository.PhotoRepository, logger *slog.Logger, workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{
		photos:  photos,
		logger:  logger,
		workers: workers,
		jobs:    make(chan string, queueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutines. Safe to call more than once; only
// the first call has an effect.
func (g *Generator) Start() {
	g.startOnce.Do(func() {
		for i := 0; i < g.workers; i++ {
			g.wg.Add(1)
			go g.run()
		}
		g.logger.Info("thumbnail workers started", slog.Int("workers", g.workers))
	})
}

// Stop signals the workers to finish and waits for them. Queued jobs that
// have not started are abandoned; their photos stay pending and are picked
// up again only on re-upload.
func (g *Generator) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)
		g.wg.Wait()
		g.logger.Info("thumbnail workers stopped")
	})
}

// Enqueue schedules thumbnail generation for a photo. It never blocks: a
// full queue or a stopped generator drops the job with a warning, leaving
// the photo in pending status.
func (g *Generator) Enqueue(photoID string) {
	select {
	case <-g.done:
		g.logger.Warn("thumbnail job dropped, generator stopped", slog.String("photo_id", photoID))
	case g.jobs <- photoID:
	default:
		g.logger.Warn("thumbnail job dropped, queue full", slog.String("photo_id", photoID))
	}
}

func (g *Generator) run() {
	defer g.wg.Done()
	for {
		select {
		case <-g.done:
			return
		case photoID := <-g.jobs:
			g.process(photoID)
		}
	}
}

func (g *Generator) process(photoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	start := time.Now()

	data, err := g.photos.GetPhotoDataForProcessing(ctx, photoID)
	if err != nil {
		// Most likely the photo was deleted before the worker got to it.
		g.logger.Warn("thumbnail job skipped, photo unavailable",
			slog.String("photo_id", photoID),
			slog.String("error", err.Error()))
		return
	}

	thumb, width, height, err := generate(data)
	if err != nil {
		g.logger.Warn("thumbnail generation failed",
			slog.String("photo_id", photoID),
			slog.String("error", err.Error()))
		if err := g.photos.MarkThumbnailFailed(ctx, photoID); err != nil {
			g.logger.Error("failed to mark thumbnail failed",
				slog.String("photo_id", photoID),
				slog.String("error", err.Error()))
		}
		return
	}

	if err := g.photos.StoreThumbnail(ctx, photoID, thumb, width, height); err != nil {
		g.logger.Error("failed to store thumbnail",
			slog.String("photo_id", photoID),
			slog.String("error", err.Error()))
		return
	}

	g.logger.Info("thumbnail generated",
		slog.String("photo_id", photoID),
		slog.Int("original_width", width),
		slog.Int("original_height", height),
		slog.Duration("took", time.Since(start)))
}

// generate decodes the original image, scales it to fit the thumbnail box,
// and encodes it as JPEG. It returns the thumbnail bytes and the original's
// dimensions.
func generate(data []byte) ([]byte, int, int, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("thumbnail: decoding image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 1 || height < 1 {
		return nil, 0, 0, fmt.Errorf("thumbnail: empty %s image", format)
	}

	tw, th := fit(width, height)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))

	// CatmullRom gives the best quality but is slow on large inputs;
	// fall back to the cheaper kernel past 2 megapixels.
	scaler := draw.Scaler(draw.CatmullRom)
	if width*height > 2_000_000 {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("thumbnail: encoding jpeg: %w", err)
	}

	return buf.Bytes(), width, height, nil
}

// fit returns the thumbnail dimensions for an original of the given size:
// scaled down to fit inside MaxWidth x MaxHeight preserving aspect ratio,
// never scaled up, and never smaller than 1x1.
func fit(width, height int) (int, int) {
	if width <= MaxWidth && height <= MaxHeight {
		return width, height
	}

	scaleW := float64(MaxWidth) / float64(width)
	scaleH := float64(MaxHeight) / float64(height)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	tw := int(math.Round(float64(width) * scale))
	th := int(math.Round(float64(height) * scale))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
