package handler

import (
	"context"
	"net/http"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/guild"
	"github.com/nexumi/nexumi-core/internal/player"
)

// CreateGuildRequest founds a guild led by the caller
type CreateGuildRequest struct {
	Name                string `json:"name" validate:"required,min=3,max=32,excludesall=\x00\n\r\t"`
	Tag                 string `json:"tag,omitempty" validate:"omitempty,min=2,max=5,alphanum"`
	Description         string `json:"description,omitempty" validate:"omitempty,max=500"`
	MaxMembers          int    `json:"max_members,omitempty" validate:"omitempty,min=1,max=500"`
	MinLevel            int    `json:"min_level,omitempty" validate:"omitempty,min=1,max=100"`
	ApplicationRequired bool   `json:"application_required,omitempty"`
}

// TransferLeadershipRequest names the new leader
type TransferLeadershipRequest struct {
	NewLeaderID string `json:"new_leader_id" validate:"required,entityid"`
}

// ChangeRoleRequest promotes or demotes a member
type ChangeRoleRequest struct {
	PlayerID string `json:"player_id" validate:"required,entityid"`
	Role     string `json:"role" validate:"required,oneof=officer member"`
}

// TreasuryRequest moves currency into or out of the guild treasury
type TreasuryRequest struct {
	Amount int `json:"amount" validate:"required,min=1,max=1000000"`
}

// LeaveResponse reports the outcome of leaving
type LeaveResponse struct {
	Message   string        `json:"message"`
	Disbanded bool          `json:"disbanded"`
	Guild     *domain.Guild `json:"guild,omitempty"`
}

// GuildHandler serves guild endpoints
type GuildHandler struct {
	guilds  guild.Service
	players player.Service
}

// NewGuildHandler creates a GuildHandler
func NewGuildHandler(guilds guild.Service, players player.Service) *GuildHandler {
	return &GuildHandler{guilds: guilds, players: players}
}

// HandleCreate founds a guild
// @Summary Create guild
// @Tags guilds
// @Accept json
// @Produce json
// @Param request body CreateGuildRequest true "Guild details"
// @Success 201 {object} domain.Guild
// @Failure 409 {object} ErrorResponse "Name taken"
// @Failure 422 {object} ErrorResponse "Already in a guild"
// @Router /api/v1/guilds [post]
func (h *GuildHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}

	var req CreateGuildRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create guild"); err != nil {
		return
	}

	g, err := h.guilds.Create(r.Context(), creatorID, guild.CreateRequest{
		Name:                req.Name,
		Tag:                 req.Tag,
		Description:         req.Description,
		MaxMembers:          req.MaxMembers,
		MinLevel:            req.MinLevel,
		ApplicationRequired: req.ApplicationRequired,
	})
	if err != nil {
		respondServiceError(w, r, "Create guild", err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

// HandleGet returns a guild
// @Summary Get guild
// @Tags guilds
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} domain.Guild
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/guilds/{guildID} [get]
func (h *GuildHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildID")
	if !ok {
		return
	}
	g, err := h.guilds.Get(r.Context(), guildID)
	if err != nil {
		respondServiceError(w, r, "Get guild", err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// HandleMembers lists the player profiles that reference the guild
// @Summary List guild member profiles
// @Tags guilds
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {array} domain.Player
// @Router /api/v1/guilds/{guildID}/members [get]
func (h *GuildHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildID")
	if !ok {
		return
	}
	if _, err := h.guilds.Get(r.Context(), guildID); err != nil {
		respondServiceError(w, r, "List guild members", err)
		return
	}
	members, err := h.players.ListByGuild(r.Context(), guildID)
	if err != nil {
		respondServiceError(w, r, "List guild members", err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// HandleJoin adds the caller to a guild
// @Summary Join guild
// @Tags guilds
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} domain.Guild
// @Failure 422 {object} ErrorResponse "Full, level too low or application required"
// @Router /api/v1/guilds/{guildID}/join [post]
func (h *GuildHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	playerID, guildID, ok := h.actorAndGuild(w, r)
	if !ok {
		return
	}
	g, err := h.guilds.Join(r.Context(), guildID, playerID)
	if err != nil {
		respondServiceError(w, r, "Join guild", err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// HandleLeave removes the caller from a guild. A sole leader disbands it.
// @Summary Leave guild
// @Tags guilds
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} LeaveResponse
// @Failure 409 {object} ErrorResponse "Leader must transfer first"
// @Router /api/v1/guilds/{guildID}/leave [post]
func (h *GuildHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	playerID, guildID, ok := h.actorAndGuild(w, r)
	if !ok {
		return
	}
	res, err := h.guilds.Leave(r.Context(), guildID, playerID)
	if err != nil {
		respondServiceError(w, r, "Leave guild", err)
		return
	}

	resp := LeaveResponse{Message: MsgGuildLeft, Disbanded: res.Disbanded, Guild: res.Guild}
	if res.Disbanded {
		resp.Message = MsgGuildDisbanded
		resp.Guild = nil
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleTransferLeadership hands the guild to another member
// @Summary Transfer leadership
// @Tags guilds
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Param request body TransferLeadershipRequest true "New leader"
// @Success 200 {object} domain.Guild
// @Router /api/v1/guilds/{guildID}/transfer [post]
func (h *GuildHandler) HandleTransferLeadership(w http.ResponseWriter, r *http.Request) {
	leaderID, guildID, ok := h.actorAndGuild(w, r)
	if !ok {
		return
	}
	var req TransferLeadershipRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Transfer leadership"); err != nil {
		return
	}
	g, err := h.guilds.TransferLeadership(r.Context(), guildID, leaderID, req.NewLeaderID)
	if err != nil {
		respondServiceError(w, r, "Transfer leadership", err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// HandleChangeRole sets a member's role
// @Summary Change member role
// @Tags guilds
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Param request body ChangeRoleRequest true "Member and role"
// @Success 200 {object} domain.Guild
// @Router /api/v1/guilds/{guildID}/roles [post]
func (h *GuildHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	actorID, guildID, ok := h.actorAndGuild(w, r)
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Change role"); err != nil {
		return
	}
	g, err := h.guilds.ChangeRole(r.Context(), guildID, actorID, req.PlayerID, domain.GuildRole(req.Role))
	if err != nil {
		respondServiceError(w, r, "Change role", err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// HandleDeposit adds to the guild treasury
// @Summary Deposit to treasury
// @Tags guilds
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Param request body TreasuryRequest true "Amount"
// @Success 200 {object} domain.Guild
// @Router /api/v1/guilds/{guildID}/treasury/deposit [post]
func (h *GuildHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.treasury(w, r, "Deposit", h.guilds.Deposit)
}

// HandleWithdraw takes from the guild treasury
// @Summary Withdraw from treasury
// @Tags guilds
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Param request body TreasuryRequest true "Amount"
// @Success 200 {object} domain.Guild
// @Failure 422 {object} ErrorResponse "Not a treasurer or insufficient balance"
// @Router /api/v1/guilds/{guildID}/treasury/withdraw [post]
func (h *GuildHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.treasury(w, r, "Withdraw", h.guilds.Withdraw)
}

type treasuryOp func(ctx context.Context, guildID, playerID string, amount int) (*domain.Guild, error)

func (h *GuildHandler) treasury(w http.ResponseWriter, r *http.Request, opName string, op treasuryOp) {
	playerID, guildID, ok := h.actorAndGuild(w, r)
	if !ok {
		return
	}
	var req TreasuryRequest
	if err := DecodeAndValidateRequest(r, w, &req, opName); err != nil {
		return
	}
	g, err := op(r.Context(), guildID, playerID, req.Amount)
	if err != nil {
		respondServiceError(w, r, opName, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *GuildHandler) actorAndGuild(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	playerID, ok := requirePlayerID(w, r)
	if !ok {
		return "", "", false
	}
	guildID, ok := pathID(w, r, "guildID")
	if !ok {
		return "", "", false
	}
	return playerID, guildID, true
}
