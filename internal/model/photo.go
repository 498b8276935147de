package model

import "time"

// Thumbnail generation states. A photo starts out pending; the background
// worker moves it to ready (thumbnail bytes stored) or failed (payload
// sniffed as an image but could not be decoded).
const (
	ThumbnailPending = "pending"
	ThumbnailReady   = "ready"
	ThumbnailFailed  = "failed"
)

// Photo is an uploaded image belonging to exactly one plant.
//
// ContentType is determined by sniffing the uploaded bytes, never trusted
// from the client. Width/Height are the decoded dimensions of the original
// and stay zero until the background worker has processed the photo. The
// image payloads themselves are not part of this struct; they are streamed
// directly from the repository.
type Photo struct {
	ID               string    `json:"id"               db:"id"`
	PlantID          string    `json:"plantId"          db:"plant_id"`
	OriginalFilename string    `json:"originalFilename" db:"original_filename"`
	ContentType      string    `json:"contentType"      db:"content_type"`
	Size             int64     `json:"size"             db:"size"`
	Width            int       `json:"width"            db:"width"`
	Height           int       `json:"height"           db:"height"`
	ThumbnailStatus  string    `json:"thumbnailStatus"  db:"thumbnail_status"`
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
}
