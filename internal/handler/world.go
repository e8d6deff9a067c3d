package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/world"
)

// CreateWorldRequest registers a generated world
type CreateWorldRequest struct {
	WorldID          string                        `json:"world_id" validate:"required,entityid"`
	Name             string                        `json:"name" validate:"required,max=64"`
	Description      string                        `json:"description,omitempty" validate:"omitempty,max=500"`
	Seed             int64                         `json:"seed"`
	Difficulty       string                        `json:"difficulty,omitempty" validate:"omitempty,oneof=peaceful easy normal hard"`
	Settings         domain.WorldSettings          `json:"settings"`
	GlobalStructures map[string]domain.Coordinates `json:"global_structures,omitempty"`
}

// WorldHandler serves world endpoints
type WorldHandler struct {
	worlds world.Service
}

// NewWorldHandler creates a WorldHandler
func NewWorldHandler(worlds world.Service) *WorldHandler {
	return &WorldHandler{worlds: worlds}
}

// HandleCreate registers a world
// @Summary Create world
// @Tags worlds
// @Accept json
// @Produce json
// @Param request body CreateWorldRequest true "World"
// @Success 201 {object} domain.World
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/worlds [post]
func (h *WorldHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateWorldRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create world"); err != nil {
		return
	}
	wd, err := h.worlds.Create(r.Context(), world.CreateRequest{
		WorldID:          req.WorldID,
		Name:             req.Name,
		Description:      req.Description,
		Seed:             req.Seed,
		Difficulty:       req.Difficulty,
		Settings:         req.Settings,
		GlobalStructures: req.GlobalStructures,
	})
	if err != nil {
		respondServiceError(w, r, "Create world", err)
		return
	}
	respondJSON(w, http.StatusCreated, wd)
}

// HandleGet returns a world
// @Summary Get world
// @Tags worlds
// @Produce json
// @Param worldID path string true "World ID"
// @Success 200 {object} domain.World
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/worlds/{worldID} [get]
func (h *WorldHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	worldID, ok := pathID(w, r, "worldID")
	if !ok {
		return
	}
	wd, err := h.worlds.Get(r.Context(), worldID)
	if err != nil {
		respondServiceError(w, r, "Get world", err)
		return
	}
	respondJSON(w, http.StatusOK, wd)
}

// HandleUpdateSettings replaces a world's gameplay toggles
// @Summary Update world settings
// @Tags worlds
// @Accept json
// @Produce json
// @Param worldID path string true "World ID"
// @Param request body domain.WorldSettings true "Settings"
// @Success 200 {object} domain.World
// @Router /api/v1/worlds/{worldID}/settings [put]
func (h *WorldHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	worldID, ok := pathID(w, r, "worldID")
	if !ok {
		return
	}
	var settings domain.WorldSettings
	if err := DecodeAndValidateRequest(r, w, &settings, "Update world settings"); err != nil {
		return
	}
	wd, err := h.worlds.UpdateSettings(r.Context(), worldID, settings)
	if err != nil {
		respondServiceError(w, r, "Update world settings", err)
		return
	}
	respondJSON(w, http.StatusOK, wd)
}

// HandlePutChunk stores generated terrain for one chunk
// @Summary Store terrain chunk
// @Tags worlds
// @Accept json
// @Produce json
// @Param worldID path string true "World ID"
// @Param chunkKey path string true "Chunk key <x>_<y>"
// @Success 200 {object} domain.World
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/worlds/{worldID}/chunks/{chunkKey} [put]
func (h *WorldHandler) HandlePutChunk(w http.ResponseWriter, r *http.Request) {
	worldID, ok := pathID(w, r, "worldID")
	if !ok {
		return
	}

	var data json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}

	wd, err := h.worlds.PutChunk(r.Context(), worldID, chi.URLParam(r, "chunkKey"), data)
	if err != nil {
		respondServiceError(w, r, "Store chunk", err)
		return
	}
	respondJSON(w, http.StatusOK, wd)
}
