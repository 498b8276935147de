package model

import "time"

// Plant is a tracked plant with its recurring care schedule. A plant is
// owned by exactly one user and is never visible to anyone else.
//
// LastWatered/LastFertilized are nil until the user records the first care
// event; the calendar generator falls back to a default baseline in that
// case. ThumbnailID, when set, must reference a photo belonging to this
// plant. ThumbnailURL is derived from ThumbnailID for responses and is not
// persisted.
type Plant struct {
	ID                      string     `json:"id"                      db:"id"`
	UserID                  string     `json:"-"                       db:"user_id"`
	Name                    string     `json:"name"                    db:"name"`
	Genus                   string     `json:"genus"                   db:"genus"`
	WateringIntervalDays    int        `json:"wateringIntervalDays"    db:"watering_interval_days"`
	FertilizingIntervalDays int        `json:"fertilizingIntervalDays" db:"fertilizing_interval_days"`
	LastWatered             *time.Time `json:"lastWatered"             db:"last_watered"`
	LastFertilized          *time.Time `json:"lastFertilized"          db:"last_fertilized"`
	ThumbnailID             *string    `json:"thumbnailId"             db:"thumbnail_id"`
	ThumbnailURL            *string    `json:"thumbnailUrl"            db:"-"`
	CreatedAt               time.Time  `json:"createdAt"               db:"created_at"`
	UpdatedAt               time.Time  `json:"updatedAt"               db:"updated_at"`
}
