// Package guild coordinates guild membership. The guild document owns the
// member list; a player's guild_id is a back-reference written after the
// guild commit and compensated if it cannot be written.
package guild

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/store"
)

// Approver decides applications to guilds that require one. Approval
// workflows live outside the core.
type Approver interface {
	Approve(ctx context.Context, guild *domain.Guild, playerID string) (bool, error)
}

// ApproverFunc adapts a function to Approver
type ApproverFunc func(ctx context.Context, guild *domain.Guild, playerID string) (bool, error)

// Approve implements Approver
func (f ApproverFunc) Approve(ctx context.Context, guild *domain.Guild, playerID string) (bool, error) {
	return f(ctx, guild, playerID)
}

// CreateRequest describes a new guild
type CreateRequest struct {
	Name                string
	Tag                 string
	Description         string
	MaxMembers          int
	MinLevel            int
	ApplicationRequired bool
}

// LeaveResult reports what a leave did
type LeaveResult struct {
	Guild     *domain.Guild
	Disbanded bool
}

// Service defines guild operations
type Service interface {
	Create(ctx context.Context, creatorID string, req CreateRequest) (*domain.Guild, error)
	Get(ctx context.Context, guildID string) (*domain.Guild, error)
	Join(ctx context.Context, guildID, playerID string) (*domain.Guild, error)
	Leave(ctx context.Context, guildID, playerID string) (*LeaveResult, error)
	TransferLeadership(ctx context.Context, guildID, leaderID, newLeaderID string) (*domain.Guild, error)
	ChangeRole(ctx context.Context, guildID, actorID, targetID string, role domain.GuildRole) (*domain.Guild, error)
	Deposit(ctx context.Context, guildID, playerID string, amount int) (*domain.Guild, error)
	Withdraw(ctx context.Context, guildID, playerID string, amount int) (*domain.Guild, error)
}

// Config holds guild defaults
type Config struct {
	DefaultMaxMembers int
}

// DefaultConfig returns the default guild settings
func DefaultConfig() Config {
	return Config{DefaultMaxMembers: domain.DefaultGuildMaxMembers}
}

type service struct {
	guilds   *store.Repository[domain.Guild]
	players  *store.Repository[domain.Player]
	approver Approver
	bus      event.Bus
	cfg      Config
	now      func() time.Time
	newID    func() string
}

// NewService creates a new guild service. approver and bus may be nil; without
// an approver, guilds that require applications cannot be joined.
func NewService(guilds *store.Repository[domain.Guild], players *store.Repository[domain.Player], approver Approver, bus event.Bus, cfg Config) Service {
	if cfg.DefaultMaxMembers <= 0 {
		cfg.DefaultMaxMembers = domain.DefaultGuildMaxMembers
	}
	return &service{
		guilds:   guilds,
		players:  players,
		approver: approver,
		bus:      bus,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return "guild_" + uuid.NewString() },
	}
}

func (s *service) Get(ctx context.Context, guildID string) (*domain.Guild, error) {
	snap, err := s.guilds.Get(ctx, guildID)
	if err != nil {
		return nil, guildNotFound(err)
	}
	return snap.Value, nil
}

// activePlayer loads a player and rejects archived ones
func (s *service) activePlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	snap, err := s.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	if snap.Value.Archived {
		return nil, domain.ErrPlayerArchived
	}
	return snap.Value, nil
}

// staleGuildRef returns p.GuildID when it points at a guild that no longer
// lists p, so a back-reference left by a failed unlink does not block joins.
func (s *service) staleGuildRef(ctx context.Context, p *domain.Player) (string, error) {
	if !p.InGuild() {
		return "", nil
	}
	g, err := s.guilds.Get(ctx, p.GuildID)
	if errors.Is(err, domain.ErrNotFound) {
		return p.GuildID, nil
	}
	if err != nil {
		return "", err
	}
	if g.Value.Member(p.PlayerID) == -1 {
		return p.GuildID, nil
	}
	return "", nil
}

// linkPlayer points the player's back-reference at guildID
func (s *service) linkPlayer(ctx context.Context, playerID, guildID, stale string) error {
	_, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		switch p.GuildID {
		case guildID:
			return store.ErrUnchanged
		case "", stale:
			p.GuildID = guildID
			return nil
		default:
			return domain.ErrAlreadyInGuild
		}
	})
	return err
}

// unlinkPlayer clears the back-reference if it still points at guildID
func (s *service) unlinkPlayer(ctx context.Context, playerID, guildID string) error {
	_, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		if p.GuildID != guildID {
			return store.ErrUnchanged
		}
		p.GuildID = ""
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (s *service) publish(ctx context.Context, t event.Type, payload event.GuildPayloadV1) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.NewGuildEvent(t, payload, logger.SessionIDFromContext(ctx))); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", t, "error", err)
	}
}

func record(op string, err error) {
	metrics.GuildOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

func guildNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrGuildNotFound) && !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.ErrGuildNotFound
	}
	return err
}
