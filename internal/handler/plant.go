package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/service"
)

// PlantHandler serves the plant collection endpoints.
type PlantHandler struct {
	plants *service.PlantService
	logger *slog.Logger
}

// NewPlantHandler creates a PlantHandler.
func NewPlantHandler(plants *service.PlantService, logger *slog.Logger) *PlantHandler {
	return &PlantHandler{plants: plants, logger: logger}
}

type plantListResponse struct {
	Plants []model.Plant `json:"plants"`
	Total  int64         `json:"total"`
}

// HandleList returns a page of the user's plants, newest first.
func (h *PlantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	plants, total, err := h.plants.List(r.Context(), userID, listOptions(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plantListResponse{Plants: plants, Total: total})
}

// HandleCreate adds a plant to the user's collection.
func (h *PlantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.CreatePlantInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	plant, err := h.plants.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, plant)
}

// HandleGet returns one plant.
func (h *PlantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	plant, err := h.plants.Get(r.Context(), userID, r.PathValue("plantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plant)
}

// HandleUpdate applies a partial update to a plant.
func (h *PlantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.UpdatePlantInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	plant, err := h.plants.Update(r.Context(), userID, r.PathValue("plantID"), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plant)
}

// HandleDelete removes a plant and its photos.
func (h *PlantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.plants.Delete(r.Context(), userID, r.PathValue("plantID")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSetThumbnail designates one of the plant's photos as its thumbnail.
func (h *PlantHandler) HandleSetThumbnail(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	plant, err := h.plants.SetThumbnail(r.Context(), userID,
		r.PathValue("plantID"), r.PathValue("photoID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plant)
}

// careInput is the optional body of a care event. An absent body or a null
// at means the event happened now.
type careInput struct {
	At *time.Time `json:"at"`
}

// decodeCareInput reads the optional care-event body. An empty body is not
// an error; a body that is present but unparsable is.
func decodeCareInput(r *http.Request) (*time.Time, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperror.Malformed("could not read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var input careInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperror.Malformed("invalid JSON body")
	}
	return input.At, nil
}

// HandleMarkWatered records a watering event, at the provided timestamp or
// now.
func (h *PlantHandler) HandleMarkWatered(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	at, err := decodeCareInput(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	plant, err := h.plants.MarkWatered(r.Context(), userID, r.PathValue("plantID"), at)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plant)
}

// HandleMarkFertilized records a fertilizing event, at the provided
// timestamp or now.
func (h *PlantHandler) HandleMarkFertilized(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	at, err := decodeCareInput(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	plant, err := h.plants.MarkFertilized(r.Context(), userID, r.PathValue("plantID"), at)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, plant)
}
