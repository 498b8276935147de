package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ThomasConrad/PlantTracker/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:         email,
		Name:          "Test User",
		PasswordHash:  "$2a$04$fakehashfortestingonly",
		CalendarToken: "token-" + email,
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func seedPlant(t *testing.T, db *DB, userID, name string) *model.Plant {
	t.Helper()

	plant := &model.Plant{
		UserID:                  userID,
		Name:                    name,
		Genus:                   "Testus",
		WateringIntervalDays:    7,
		FertilizingIntervalDays: 30,
	}
	require.NoError(t, db.CreatePlant(context.Background(), plant))
	return plant
}

func seedPhoto(t *testing.T, db *DB, plantID string, data []byte) *model.Photo {
	t.Helper()

	photo := &model.Photo{
		PlantID:          plantID,
		OriginalFilename: "test.jpg",
		ContentType:      "image/jpeg",
		Size:             int64(len(data)),
	}
	require.NoError(t, db.CreatePhoto(context.Background(), photo, data))
	return photo
}

func seedSession(t *testing.T, db *DB, userID string, expiresAt time.Time) *model.Session {
	t.Helper()

	session := &model.Session{
		ID:        "session-" + userID + "-" + expiresAt.Format(time.RFC3339Nano),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.CreateSession(context.Background(), session))
	return session
}
