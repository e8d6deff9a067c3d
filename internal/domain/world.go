package domain

import (
	"encoding/json"
	"time"
)

// World difficulties
const (
	DifficultyPeaceful = "peaceful"
	DifficultyEasy     = "easy"
	DifficultyNormal   = "normal"
	DifficultyHard     = "hard"
)

// Coordinates is a 2D point inside a world
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorldSettings are the gameplay toggles for a world
type WorldSettings struct {
	PvPEnabled      bool `json:"pvp_enabled"`
	BuildingEnabled bool `json:"building_enabled"`
	RespawnOnDeath  bool `json:"respawn_on_death"`
}

// World is created by world-gen tooling and rarely mutated
type World struct {
	WorldID          string                     `json:"world_id"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description,omitempty"`
	Seed             int64                      `json:"seed"`
	Difficulty       string                     `json:"difficulty,omitempty"`
	Settings         WorldSettings              `json:"settings"`
	Chunks           map[string]json.RawMessage `json:"chunks,omitempty"`
	GlobalStructures map[string]Coordinates     `json:"global_structures,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// WorldIDOf returns the document id
func WorldIDOf(w *World) string {
	return w.WorldID
}
