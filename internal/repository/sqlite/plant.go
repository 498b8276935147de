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

// compile-time check that *DB implements repository.PlantRepository
var _ repository.PlantRepository = (*DB)(nil)

const plantColumns = `id, user_id, name, genus, watering_interval_days,
	fertilizing_interval_days, last_watered, last_fertilized, thumbnail_id,
	created_at, updated_at`

// CreatePlant inserts a new plant, generating its ID and timestamps.
func (db *DB) CreatePlant(ctx context.Context, plant *model.Plant) error {
	plant.ID = xid.New().String()

	now := time.Now().UTC()
	plant.CreatedAt = now
	plant.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO plants (id, user_id, name, genus, watering_interval_days,
		   fertilizing_interval_days, last_watered, last_fertilized, thumbnail_id,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plant.ID,
		plant.UserID,
		plant.Name,
		plant.Genus,
		plant.WateringIntervalDays,
		plant.FertilizingIntervalDays,
		nullTime(plant.LastWatered),
		nullTime(plant.LastFertilized),
		nullString(plant.ThumbnailID),
		plant.CreatedAt,
		plant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating plant: %w", err)
	}

	return nil
}

// GetPlant retrieves a plant owned by userID. A plant that exists but
// belongs to a different user is reported as not found.
func (db *DB) GetPlant(ctx context.Context, userID, id string) (*model.Plant, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	plant, err := scanPlant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("plant", id)
		}
		return nil, fmt.Errorf("sqlite: getting plant %s: %w", id, err)
	}

	return plant, nil
}

// ListPlants returns a page of the user's plants (newest first) together
// with the user's total plant count.
func (db *DB) ListPlants(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Plant, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plants WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting plants: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+plantColumns+` FROM plants
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing plants: %w", err)
	}
	defer rows.Close()

	plants := make([]model.Plant, 0, limit)
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning plant row: %w", err)
		}
		plants = append(plants, *plant)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating plants: %w", err)
	}

	return plants, total, nil
}

// UpdatePlant writes all mutable fields of the plant. The WHERE clause is
// scoped to the owner, so updating a foreign plant affects zero rows and
// reports not found.
func (db *DB) UpdatePlant(ctx context.Context, plant *model.Plant) error {
	plant.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE plants
		 SET name = ?, genus = ?, watering_interval_days = ?,
		     fertilizing_interval_days = ?, last_watered = ?, last_fertilized = ?,
		     thumbnail_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		plant.Name,
		plant.Genus,
		plant.WateringIntervalDays,
		plant.FertilizingIntervalDays,
		nullTime(plant.LastWatered),
		nullTime(plant.LastFertilized),
		nullString(plant.ThumbnailID),
		plant.UpdatedAt,
		plant.ID,
		plant.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating plant %s: %w", plant.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("plant", plant.ID)
	}

	return nil
}

// DeletePlant removes a plant owned by userID; its photos cascade.
func (db *DB) DeletePlant(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM plants WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting plant %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("plant", id)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlant(s scanner) (*model.Plant, error) {
	var (
		p              model.Plant
		lastWatered    sql.NullTime
		lastFertilized sql.NullTime
		thumbnailID    sql.NullString
	)

	err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Genus,
		&p.WateringIntervalDays,
		&p.FertilizingIntervalDays,
		&lastWatered,
		&lastFertilized,
		&thumbnailID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastWatered.Valid {
		t := lastWatered.Time
		p.LastWatered = &t
	}
	if lastFertilized.Valid {
		t := lastFertilized.Time
		p.LastFertilized = &t
	}
	if thumbnailID.Valid {
		id := thumbnailID.String
		p.ThumbnailID = &id
	}

	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
