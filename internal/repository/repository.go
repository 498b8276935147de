// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation.
package repository

import (
	"context"

	"github.com/ThomasConrad/PlantTracker/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateCalendarToken replaces the user's calendar token, invalidating
	// any feed URL issued with the previous one.
	UpdateCalendarToken(ctx context.Context, userID, token string) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions past their expiry and returns
	// how many were purged.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// PlantRepository is owner-scoped: every lookup carries the caller's user ID
// and a plant owned by someone else behaves exactly like a missing one.
type PlantRepository interface {
	CreatePlant(ctx context.Context, plant *model.Plant) error
	GetPlant(ctx context.Context, userID, id string) (*model.Plant, error)
	ListPlants(ctx context.Context, userID string, opts ListOptions) ([]model.Plant, int64, error)
	UpdatePlant(ctx context.Context, plant *model.Plant) error
	DeletePlant(ctx context.Context, userID, id string) error
}

// PhotoRepository stores photo metadata and the image payloads (original and
// derived thumbnail). The owner-scoped methods take the caller's user ID; the
// processing methods are used by the background thumbnail worker, which
// addresses photos directly by ID.
type PhotoRepository interface {
	CreatePhoto(ctx context.Context, photo *model.Photo, data []byte) error
	GetPhoto(ctx context.Context, userID, plantID, photoID string) (*model.Photo, error)
	ListPhotos(ctx context.Context, userID, plantID string, opts ListOptions) ([]model.Photo, int64, error)
	DeletePhoto(ctx context.Context, userID, plantID, photoID string) error
	GetPhotoData(ctx context.Context, userID, plantID, photoID string) ([]byte, string, error)
	GetThumbnailData(ctx context.Context, userID, plantID, photoID string) ([]byte, error)

	GetPhotoDataForProcessing(ctx context.Context, photoID string) ([]byte, error)
	StoreThumbnail(ctx context.Context, photoID string, thumbnail []byte, width, height int) error
	MarkThumbnailFailed(ctx context.Context, photoID string) error
}
