package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "gardener@example.com", got.Email)
	assert.Equal(t, user.CalendarToken, got.CalendarToken)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	seedUser(t, db, "gardener@example.com")

	dup := &model.User{
		Email:         "gardener@example.com",
		Name:          "Other User",
		PasswordHash:  "x",
		CalendarToken: "other-token",
	}
	assert.Error(t, db.CreateUser(context.Background(), dup))
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")

	got, err := db.GetUserByEmail(ctx, "gardener@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetUserByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateCalendarToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")

	require.NoError(t, db.UpdateCalendarToken(ctx, user.ID, "newtoken"))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newtoken", got.CalendarToken)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestUpdateCalendarTokenUnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateCalendarToken(context.Background(), "missing", "tok")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
