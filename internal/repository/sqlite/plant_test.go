package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

func TestCreateAndGetPlant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	plant := seedPlant(t, db, user.ID, "Monstera")

	assert.NotEmpty(t, plant.ID)
	assert.False(t, plant.CreatedAt.IsZero())

	got, err := db.GetPlant(ctx, user.ID, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monstera", got.Name)
	assert.Equal(t, 7, got.WateringIntervalDays)
	assert.Nil(t, got.LastWatered)
	assert.Nil(t, got.ThumbnailID)
}

func TestGetPlantScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	plant := seedPlant(t, db, owner.ID, "Monstera")

	_, err := db.GetPlant(ctx, other.ID, plant.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound),
		"a foreign plant must be indistinguishable from a missing one")
}

func TestListPlants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	other := seedUser(t, db, "other@example.com")
	for _, name := range []string{"Monstera", "Ficus", "Pothos"} {
		seedPlant(t, db, user.ID, name)
	}
	seedPlant(t, db, other.ID, "Cactus")

	plants, total, err := db.ListPlants(ctx, user.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, plants, 3)
	for _, p := range plants {
		assert.NotEqual(t, "Cactus", p.Name)
	}
}

func TestListPlantsPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seedPlant(t, db, user.ID, name)
	}

	page, total, err := db.ListPlants(ctx, user.ID, repository.ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	empty, total, err := db.ListPlants(ctx, user.ID, repository.ListOptions{Limit: 10, Offset: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, empty)
}

func TestUpdatePlant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	plant := seedPlant(t, db, user.ID, "Monstera")

	watered := time.Now().UTC().Truncate(time.Second)
	plant.Name = "Monstera Deliciosa"
	plant.WateringIntervalDays = 5
	plant.LastWatered = &watered

	require.NoError(t, db.UpdatePlant(ctx, plant))

	got, err := db.GetPlant(ctx, user.ID, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monstera Deliciosa", got.Name)
	assert.Equal(t, 5, got.WateringIntervalDays)
	require.NotNil(t, got.LastWatered)
	assert.True(t, got.LastWatered.Equal(watered))
}

func TestUpdatePlantScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	plant := seedPlant(t, db, owner.ID, "Monstera")

	plant.UserID = other.ID
	plant.Name = "Hijacked"
	err := db.UpdatePlant(ctx, plant)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeletePlant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	plant := seedPlant(t, db, user.ID, "Monstera")

	require.NoError(t, db.DeletePlant(ctx, user.ID, plant.ID))

	_, err := db.GetPlant(ctx, user.ID, plant.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = db.DeletePlant(ctx, user.ID, plant.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeletePlantCascadesPhotos(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "gardener@example.com")
	plant := seedPlant(t, db, user.ID, "Monstera")
	photo := seedPhoto(t, db, plant.ID, []byte("fake image bytes"))

	require.NoError(t, db.DeletePlant(ctx, user.ID, plant.ID))

	_, err := db.GetPhotoDataForProcessing(ctx, photo.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
