package domain

import "time"

// InventoryItem is one stack in a player's ordered inventory.
// Stacks with a durability are never merged.
type InventoryItem struct {
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
	Durability *int   `json:"durability,omitempty"`
}

// Position places a player inside a world
type Position struct {
	WorldID string  `json:"world_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z,omitempty"`
}

// PlayerSettings holds client preferences
type PlayerSettings struct {
	MusicVolume float64 `json:"music_volume"`
	SFXVolume   float64 `json:"sfx_volume"`
	AutoSave    bool    `json:"auto_save"`
}

// Player is the persisted player document.
// PlayerID is immutable; players are archived rather than deleted.
type Player struct {
	PlayerID      string            `json:"player_id"`
	Username      string            `json:"username"`
	UsernameKey   string            `json:"username_key"`
	Email         string            `json:"email,omitempty"`
	Level         int               `json:"level"`
	Experience    int               `json:"experience"`
	Health        int               `json:"health"`
	MaxHealth     int               `json:"max_health"`
	Currency      int               `json:"currency"`
	Inventory     []InventoryItem   `json:"inventory"`
	EquippedItems map[string]string `json:"equipped_items"`
	Skills        map[string]int    `json:"skills,omitempty"`
	Achievements  []string          `json:"achievements,omitempty"`
	Friends       []string          `json:"friends,omitempty"`
	Settings      PlayerSettings    `json:"settings"`
	GuildID       string            `json:"guild_id,omitempty"`
	Position      Position          `json:"position"`
	Archived      bool              `json:"archived,omitempty"`
	ArchivedAt    *time.Time        `json:"archived_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	LastLogin     time.Time         `json:"last_login"`
}

// PlayerIDOf returns the document id
func PlayerIDOf(p *Player) string {
	return p.PlayerID
}

// InGuild reports whether the player currently belongs to a guild
func (p *Player) InGuild() bool {
	return p.GuildID != ""
}
