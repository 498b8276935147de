package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// compile-time check that *DB implements repository.PhotoRepository
var _ repository.PhotoRepository = (*DB)(nil)

const photoColumns = `p.id, p.plant_id, p.original_filename, p.content_type,
	p.size, p.width, p.height, p.thumbnail_status, p.created_at`

// Owner-scoped photo queries join through the plants table: a photo is only
// reachable if its plant belongs to the caller. Anything else is not found.
const photoOwnerJoin = `FROM photos p
	JOIN plants pl ON pl.id = p.plant_id
	WHERE p.id = ? AND p.plant_id = ? AND pl.user_id = ?`

// CreatePhoto inserts photo metadata together with the original image bytes.
// The thumbnail is generated later by the background worker.
func (db *DB) CreatePhoto(ctx context.Context, photo *model.Photo, data []byte) error {
	photo.ID = xid.New().String()
	photo.ThumbnailStatus = model.ThumbnailPending
	photo.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO photos (id, plant_id, original_filename, content_type, size,
		   width, height, thumbnail_status, data, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`,
		photo.ID,
		photo.PlantID,
		photo.OriginalFilename,
		photo.ContentType,
		photo.Size,
		photo.ThumbnailStatus,
		data,
		photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating photo: %w", err)
	}

	return nil
}

// GetPhoto retrieves photo metadata, scoped to the owning user.
func (db *DB) GetPhoto(ctx context.Context, userID, plantID, photoID string) (*model.Photo, error) {
	var p model.Photo

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+photoColumns+` `+photoOwnerJoin,
		photoID, plantID, userID,
	).Scan(
		&p.ID,
		&p.PlantID,
		&p.OriginalFilename,
		&p.ContentType,
		&p.Size,
		&p.Width,
		&p.Height,
		&p.ThumbnailStatus,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("photo", photoID)
		}
		return nil, fmt.Errorf("sqlite: getting photo %s: %w", photoID, err)
	}

	return &p, nil
}

// ListPhotos returns a page of a plant's photos (newest first) plus the
// plant's total photo count. The plant must belong to userID; a foreign or
// missing plant is reported as not found.
func (db *DB) ListPhotos(ctx context.Context, userID, plantID string, opts repository.ListOptions) ([]model.Photo, int64, error) {
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

	// Confirm the plant exists and is owned by the caller before listing,
	// so an empty page is distinguishable from a foreign plant.
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM plants WHERE id = ? AND user_id = ?`, plantID, userID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, apperror.NotFound("plant", plantID)
		}
		return nil, 0, fmt.Errorf("sqlite: checking plant %s: %w", plantID, err)
	}

	var total int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos WHERE plant_id = ?`, plantID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting photos: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, plant_id, original_filename, content_type, size, width,
		   height, thumbnail_status, created_at
		 FROM photos
		 WHERE plant_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		plantID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing photos: %w", err)
	}
	defer rows.Close()

	photos := make([]model.Photo, 0, limit)
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(
			&p.ID, &p.PlantID, &p.OriginalFilename, &p.ContentType, &p.Size,
			&p.Width, &p.Height, &p.ThumbnailStatus, &p.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating photos: %w", err)
	}

	return photos, total, nil
}

// DeletePhoto removes a photo, scoped to the owning user.
func (db *DB) DeletePhoto(ctx context.Context, userID, plantID, photoID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM photos
		 WHERE id = ? AND plant_id = ?
		   AND plant_id IN (SELECT id FROM plants WHERE user_id = ?)`,
		photoID, plantID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting photo %s: %w", photoID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("photo", photoID)
	}

	return nil
}

// GetPhotoData returns the original image bytes and their content type,
// scoped to the owning user.
func (db *DB) GetPhotoData(ctx context.Context, userID, plantID, photoID string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT p.data, p.content_type `+photoOwnerJoin,
		photoID, plantID, userID,
	).Scan(&data, &contentType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", apperror.NotFound("photo", photoID)
		}
		return nil, "", fmt.Errorf("sqlite: getting photo data %s: %w", photoID, err)
	}

	return data, contentType, nil
}

// GetThumbnailData returns the stored thumbnail bytes, scoped to the owning
// user. A photo whose thumbnail has not been generated yet is reported as
// not found; callers consult the photo's thumbnail status to decide between
// "pending" and truly absent.
func (db *DB) GetThumbnailData(ctx context.Context, userID, plantID, photoID string) ([]byte, error) {
	var thumbnail []byte

	err := db.conn.QueryRowContext(ctx,
		`SELECT p.thumbnail `+photoOwnerJoin+` AND p.thumbnail IS NOT NULL`,
		photoID, plantID, userID,
	).Scan(&thumbnail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("thumbnail", photoID)
		}
		return nil, fmt.Errorf("sqlite: getting thumbnail %s: %w", photoID, err)
	}

	return thumbnail, nil
}

// GetPhotoDataForProcessing returns the original bytes by photo ID alone.
// Used by the thumbnail worker, which operates outside any user session.
func (db *DB) GetPhotoDataForProcessing(ctx context.Context, photoID string) ([]byte, error) {
	var data []byte

	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM photos WHERE id = ?`, photoID,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("photo", photoID)
		}
		return nil, fmt.Errorf("sqlite: getting photo data for processing %s: %w", photoID, err)
	}

	return data, nil
}

// StoreThumbnail records the generated thumbnail bytes and the decoded
// dimensions of the original, and marks the photo ready.
func (db *DB) StoreThumbnail(ctx context.Context, photoID string, thumbnail []byte, width, height int) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE photos
		 SET thumbnail = ?, width = ?, height = ?, thumbnail_status = ?
		 WHERE id = ?`,
		thumbnail, width, height, model.ThumbnailReady, photoID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: storing thumbnail %s: %w", photoID, err)
	}
	return nil
}

// MarkThumbnailFailed records that the photo's payload could not be decoded.
func (db *DB) MarkThumbnailFailed(ctx context.Context, photoID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE photos SET thumbnail_status = ? WHERE id = ?`,
		model.ThumbnailFailed, photoID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking thumbnail failed %s: %w", photoID, err)
	}
	return nil
}
