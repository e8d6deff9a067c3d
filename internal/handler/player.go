package handler

import (
	"net/http"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/player"
)

// Leaderboard paging
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LoginRequest is sent on every client login. The player id comes from the
// authenticated identity; username is required the first time.
type LoginRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// LoginResponse reports the player and whether this login created it
type LoginResponse struct {
	Player  *domain.Player `json:"player"`
	Created bool           `json:"created"`
}

// UpdateProfileRequest carries editable profile fields. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Email    *string                `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Settings *domain.PlayerSettings `json:"settings,omitempty"`
	Position *domain.Position       `json:"position,omitempty"`
}

// PlayerHandler serves player endpoints
type PlayerHandler struct {
	players player.Service
}

// NewPlayerHandler creates a PlayerHandler
func NewPlayerHandler(players player.Service) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// HandleLogin records a login, creating the player on first login
// @Summary Log in
// @Description Records a login for the authenticated player, creating the profile on first login
// @Tags players
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login details"
// @Success 200 {object} LoginResponse
// @Success 201 {object} LoginResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/players/login [post]
func (h *PlayerHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Login"); err != nil {
		return
	}

	p, created, err := h.players.Login(r.Context(), player.CreateRequest{
		PlayerID: playerID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(w, r, "Login", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		logger.FromContext(r.Context()).Info("Player created on first login", "username", p.Username)
	}
	respondJSON(w, status, LoginResponse{Player: p, Created: created})
}

// HandleGetMe returns the authenticated player's profile
// @Summary Get own profile
// @Tags players
// @Produce json
// @Success 200 {object} domain.Player
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/players/me [get]
func (h *PlayerHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}
	h.respondPlayer(w, r, playerID)
}

// HandleGetPlayer returns a player by id
// @Summary Get player
// @Tags players
// @Produce json
// @Param playerID path string true "Player ID"
// @Success 200 {object} domain.Player
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/players/{playerID} [get]
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(w, r, "playerID")
	if !ok {
		return
	}
	h.respondPlayer(w, r, playerID)
}

func (h *PlayerHandler) respondPlayer(w http.ResponseWriter, r *http.Request, playerID string) {
	p, err := h.players.Get(r.Context(), playerID)
	if err != nil {
		respondServiceError(w, r, "Get player", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleGetByUsername looks a player up by username, case-insensitively
// @Summary Find player by username
// @Tags players
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} domain.Player
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/players/by-username/{username} [get]
func (h *PlayerHandler) HandleGetByUsername(w http.ResponseWriter, r *http.Request) {
	username, ok := pathID(w, r, "username")
	if !ok {
		return
	}
	p, err := h.players.GetByUsername(r.Context(), username)
	if err != nil {
		respondServiceError(w, r, "Get player by username", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleUpdateMe edits the authenticated player's profile
// @Summary Update own profile
// @Tags players
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} domain.Player
// @Failure 400 {object} ValidationErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/players/me [patch]
func (h *PlayerHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update profile"); err != nil {
		return
	}

	p, err := h.players.Update(r.Context(), playerID, player.ProfileUpdate{
		Email:    req.Email,
		Settings: req.Settings,
		Position: req.Position,
	})
	if err != nil {
		respondServiceError(w, r, "Update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleArchiveMe soft-deletes the authenticated player
// @Summary Archive own account
// @Tags players
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/players/me [delete]
func (h *PlayerHandler) HandleArchiveMe(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}
	if _, err := h.players.Archive(r.Context(), playerID); err != nil {
		respondServiceError(w, r, "Archive player", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPlayerArchived})
}

// HandleLeaderboard lists the highest level active players
// @Summary Level leaderboard
// @Tags players
// @Produce json
// @Param limit query int false "Max entries (default 10, max 100)"
// @Success 200 {array} domain.Player
// @Router /api/v1/players/leaderboard [get]
func (h *PlayerHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := GetIntQueryParam(r, w, "limit", DefaultLeaderboardLimit)
	if !ok {
		return
	}
	switch {
	case limit == 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	top, err := h.players.TopByLevel(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, "Leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}
