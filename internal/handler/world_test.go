package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/world"
)

func TestWorldHandler_Create(t *testing.T) {
	svc := &MockWorldService{}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req world.CreateRequest) bool {
		return req.WorldID == "main_world" && req.Difficulty == domain.DifficultyNormal &&
			req.Settings.PvPEnabled && req.GlobalStructures["spawn"] == domain.Coordinates{X: 0, Y: 64}
	})).Return(&domain.World{WorldID: "main_world", Name: "Main World"}, nil)
	h := NewWorldHandler(svc)

	body := `{"world_id":"main_world","name":"Main World","seed":12345,"difficulty":"normal",
		"settings":{"pvp_enabled":true,"building_enabled":true,"respawn_on_death":true},
		"global_structures":{"spawn":{"x":0,"y":64}}}`
	rec := serve(http.MethodPost, "/worlds", "/worlds", "", body, h.HandleCreate)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestWorldHandler_CreateInvalidDifficulty(t *testing.T) {
	h := NewWorldHandler(&MockWorldService{})

	rec := serve(http.MethodPost, "/worlds", "/worlds", "", `{"world_id":"w1","name":"W","difficulty":"nightmare"}`, h.HandleCreate)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"difficulty"`)
}

func TestWorldHandler_Get(t *testing.T) {
	svc := &MockWorldService{}
	svc.On("Get", mock.Anything, "main_world").Return(&domain.World{WorldID: "main_world"}, nil)
	svc.On("Get", mock.Anything, "nowhere").Return(nil, domain.ErrWorldNotFound)
	h := NewWorldHandler(svc)

	rec := serve(http.MethodGet, "/worlds/{worldID}", "/worlds/main_world", "", "", h.HandleGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodGet, "/worlds/{worldID}", "/worlds/nowhere", "", "", h.HandleGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgWorldNotFound)
}

func TestWorldHandler_PutChunk(t *testing.T) {
	svc := &MockWorldService{}
	svc.On("PutChunk", mock.Anything, "main_world", "3_-2", json.RawMessage(`{"biome":"forest"}`)).
		Return(&domain.World{WorldID: "main_world"}, nil)
	svc.On("PutChunk", mock.Anything, "main_world", "bad", mock.Anything).Return(nil, domain.ErrInvalidInput)
	h := NewWorldHandler(svc)

	rec := serve(http.MethodPut, "/worlds/{worldID}/chunks/{chunkKey}", "/worlds/main_world/chunks/3_-2", "",
		`{"biome":"forest"}`, h.HandlePutChunk)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodPut, "/worlds/{worldID}/chunks/{chunkKey}", "/worlds/main_world/chunks/bad", "",
		`{"biome":"forest"}`, h.HandlePutChunk)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}
