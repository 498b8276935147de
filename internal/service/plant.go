package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// PlantService manages the plant collection and its care schedule.
type PlantService struct {
	plants repository.PlantRepository
	photos repository.PhotoRepository
	logger *slog.Logger
}

// NewPlantService creates a PlantService.
func NewPlantService(plants repository.PlantRepository, photos repository.PhotoRepository, logger *slog.Logger) *PlantService {
	return &PlantService{plants: plants, photos: photos, logger: logger}
}

// CreatePlantInput is the payload for creating a plant. Required fields are
// pointers so a field that is absent from the request body (a malformed
// request) is distinguishable from a field that is present but invalid.
type CreatePlantInput struct {
	Name                    *string `json:"name"`
	Genus                   *string `json:"genus"`
	WateringIntervalDays    *int    `json:"wateringIntervalDays"`
	FertilizingIntervalDays *int    `json:"fertilizingIntervalDays"`
}

// UpdatePlantInput is the payload for a partial plant update. Nil fields are
// left unchanged.
type UpdatePlantInput struct {
	Name                    *string `json:"name"`
	Genus                   *string `json:"genus"`
	WateringIntervalDays    *int    `json:"wateringIntervalDays"`
	FertilizingIntervalDays *int    `json:"fertilizingIntervalDays"`
}

// plantFields carries the validation rules shared by create and update.
type plantFields struct {
	Name                    string `json:"name"                    validate:"required,min=1,max=100"`
	Genus                   string `json:"genus"                   validate:"required,min=1,max=100"`
	WateringIntervalDays    int    `json:"wateringIntervalDays"    validate:"gte=1,lte=365"`
	FertilizingIntervalDays int    `json:"fertilizingIntervalDays" validate:"gte=1,lte=365"`
}

// Create adds a plant to the user's collection.
func (s *PlantService) Create(ctx context.Context, userID string, input CreatePlantInput) (*model.Plant, error) {
	switch {
	case input.Name == nil:
		return nil, apperror.Malformed("missing required field: name")
	case input.Genus == nil:
		return nil, apperror.Malformed("missing required field: genus")
	case input.WateringIntervalDays == nil:
		return nil, apperror.Malformed("missing required field: wateringIntervalDays")
	case input.FertilizingIntervalDays == nil:
		return nil, apperror.Malformed("missing required field: fertilizingIntervalDays")
	}

	fields := plantFields{
		Name:                    strings.TrimSpace(*input.Name),
		Genus:                   strings.TrimSpace(*input.Genus),
		WateringIntervalDays:    *input.WateringIntervalDays,
		FertilizingIntervalDays: *input.FertilizingIntervalDays,
	}
	if err := validateStruct(fields); err != nil {
		return nil, err
	}

	plant := &model.Plant{
		UserID:                  userID,
		Name:                    fields.Name,
		Genus:                   fields.Genus,
		WateringIntervalDays:    fields.WateringIntervalDays,
		FertilizingIntervalDays: fields.FertilizingIntervalDays,
	}
	if err := s.plants.CreatePlant(ctx, plant); err != nil {
		return nil, err
	}

	s.logger.Info("plant created",
		slog.String("plant_id", plant.ID),
		slog.String("user_id", userID))

	decorate(plant)
	return plant, nil
}

// Get returns one of the user's plants.
func (s *PlantService) Get(ctx context.Context, userID, plantID string) (*model.Plant, error) {
	plant, err := s.plants.GetPlant(ctx, userID, plantID)
	if err != nil {
		return nil, err
	}
	decorate(plant)
	return plant, nil
}

// List returns a page of the user's plants (newest first) and the total
// count of their collection.
func (s *PlantService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Plant, int64, error) {
	plants, total, err := s.plants.ListPlants(ctx, userID, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range plants {
		decorate(&plants[i])
	}
	return plants, total, nil
}

// Update applies a partial update to one of the user's plants.
func (s *PlantService) Update(ctx context.Context, userID, plantID string, input UpdatePlantInput) (*model.Plant, error) {
	plant, err := s.plants.GetPlant(ctx, userID, plantID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		plant.Name = strings.TrimSpace(*input.Name)
	}
	if input.Genus != nil {
		plant.Genus = strings.TrimSpace(*input.Genus)
	}
	if input.WateringIntervalDays != nil {
		plant.WateringIntervalDays = *input.WateringIntervalDays
	}
	if input.FertilizingIntervalDays != nil {
		plant.FertilizingIntervalDays = *input.FertilizingIntervalDays
	}

	fields := plantFields{
		Name:                    plant.Name,
		Genus:                   plant.Genus,
		WateringIntervalDays:    plant.WateringIntervalDays,
		FertilizingIntervalDays: plant.FertilizingIntervalDays,
	}
	if err := validateStruct(fields); err != nil {
		return nil, err
	}

	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, err
	}

	decorate(plant)
	return plant, nil
}

// Delete removes one of the user's plants. Photos go with it via the
// storage layer's cascade.
func (s *PlantService) Delete(ctx context.Context, userID, plantID string) error {
	if err := s.plants.DeletePlant(ctx, userID, plantID); err != nil {
		return err
	}
	s.logger.Info("plant deleted",
		slog.String("plant_id", plantID),
		slog.String("user_id", userID))
	return nil
}

// SetThumbnail designates one of the plant's photos as its thumbnail. The
// photo must belong to the plant.
func (s *PlantService) SetThumbnail(ctx context.Context, userID, plantID, photoID string) (*model.Plant, error) {
	plant, err := s.plants.GetPlant(ctx, userID, plantID)
	if err != nil {
		return nil, err
	}

	if _, err := s.photos.GetPhoto(ctx, userID, plantID, photoID); err != nil {
		return nil, err
	}

	plant.ThumbnailID = &photoID
	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, err
	}

	decorate(plant)
	return plant, nil
}

// MarkWatered records a watering event, resetting the watering schedule.
// at overrides the event time for backfilled entries; nil means now.
func (s *PlantService) MarkWatered(ctx context.Context, userID, plantID string, at *time.Time) (*model.Plant, error) {
	return s.markCared(ctx, userID, plantID, at, func(p *model.Plant, when time.Time) {
		p.LastWatered = &when
	})
}

// MarkFertilized records a fertilizing event, resetting the fertilizing
// schedule. at overrides the event time for backfilled entries; nil means
// now.
func (s *PlantService) MarkFertilized(ctx context.Context, userID, plantID string, at *time.Time) (*model.Plant, error) {
	return s.markCared(ctx, userID, plantID, at, func(p *model.Plant, when time.Time) {
		p.LastFertilized = &when
	})
}

func (s *PlantService) markCared(ctx context.Context, userID, plantID string, at *time.Time, apply func(*model.Plant, time.Time)) (*model.Plant, error) {
	plant, err := s.plants.GetPlant(ctx, userID, plantID)
	if err != nil {
		return nil, err
	}

	when := time.Now().UTC()
	if at != nil {
		when = at.UTC()
	}

	apply(plant, when)
	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, err
	}

	decorate(plant)
	return plant, nil
}

// decorate fills the derived thumbnail URL from the persisted thumbnail ID.
func decorate(p *model.Plant) {
	if p.ThumbnailID == nil {
		p.ThumbnailURL = nil
		return
	}
	url := fmt.Sprintf("/api/v1/plants/%s/photos/%s/thumbnail", p.ID, *p.ThumbnailID)
	p.ThumbnailURL = &url
}
