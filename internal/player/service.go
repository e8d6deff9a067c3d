// Package player manages the player lifecycle: creation on first login,
// profile updates, login tracking and archival.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
)

// CreateRequest describes a new player. PlayerID comes from the identity provider.
type CreateRequest struct {
	PlayerID string
	Username string
	Email    string
}

// ProfileUpdate carries the client-editable player fields. Nil fields are left alone.
type ProfileUpdate struct {
	Email    *string
	Settings *domain.PlayerSettings
	Position *domain.Position
}

// Service defines player operations
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*domain.Player, error)
	// Login records a login, creating the player on first login
	Login(ctx context.Context, req CreateRequest) (*domain.Player, bool, error)
	Get(ctx context.Context, playerID string) (*domain.Player, error)
	GetByUsername(ctx context.Context, username string) (*domain.Player, error)
	Update(ctx context.Context, playerID string, update ProfileUpdate) (*domain.Player, error)
	RecordLogin(ctx context.Context, playerID string) (*domain.Player, error)
	Grant(ctx context.Context, playerID string, currency int, items []domain.InventoryItem) (*domain.Player, error)
	Archive(ctx context.Context, playerID string) (*domain.Player, error)
	TopByLevel(ctx context.Context, limit int) ([]domain.Player, error)
	ListByGuild(ctx context.Context, guildID string) ([]domain.Player, error)
}

// Config holds the defaults for new players
type Config struct {
	StartingCurrency int
	DefaultWorldID   string
}

// DefaultConfig returns the default player settings
func DefaultConfig() Config {
	return Config{StartingCurrency: DefaultStartingCurrency, DefaultWorldID: DefaultWorldID}
}

type service struct {
	players *store.Repository[domain.Player]
	bus     event.Bus
	cfg     Config
	now     func() time.Time
}

// NewService creates a new player service. bus may be nil.
func NewService(players *store.Repository[domain.Player], bus event.Bus, cfg Config) Service {
	return &service{
		players: players,
		bus:     bus,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*domain.Player, error) {
	log := logger.FromContext(ctx)

	playerID := strings.TrimSpace(req.PlayerID)
	username := strings.TrimSpace(req.Username)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", domain.ErrInvalidInput)
	}

	now := s.now()
	p := &domain.Player{
		PlayerID:      playerID,
		Username:      username,
		UsernameKey:   domain.FoldKey(username),
		Email:         strings.TrimSpace(req.Email),
		Level:         domain.DefaultPlayerLevel,
		Health:        domain.DefaultPlayerMaxHealth,
		MaxHealth:     domain.DefaultPlayerMaxHealth,
		Currency:      s.cfg.StartingCurrency,
		Inventory:     []domain.InventoryItem{},
		EquippedItems: make(map[string]string, len(domain.DefaultEquipmentSlots)),
		Settings:      domain.PlayerSettings{MusicVolume: 1, SFXVolume: 1, AutoSave: true},
		Position:      domain.Position{WorldID: s.cfg.DefaultWorldID},
		CreatedAt:     now,
		LastLogin:     now,
	}
	for _, slot := range domain.DefaultEquipmentSlots {
		p.EquippedItems[slot] = ""
	}

	snap, err := s.players.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgPlayerCreated, "player_id", playerID, "username", username)
	s.publish(ctx, event.NewPlayerEvent(event.PlayerCreated, snap.Value, now, logger.SessionIDFromContext(ctx)))
	return snap.Value, nil
}

func (s *service) Login(ctx context.Context, req CreateRequest) (*domain.Player, bool, error) {
	p, err := s.RecordLogin(ctx, req.PlayerID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	p, err = s.Create(ctx, req)
	if errors.Is(err, domain.ErrDuplicateKey) {
		// a concurrent first login may have won the insert
		if existing, getErr := s.RecordLogin(ctx, req.PlayerID); getErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, event.NewPlayerEvent(event.PlayerLogin, p, p.LastLogin, logger.SessionIDFromContext(ctx)))
	return p, true, nil
}

func (s *service) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	snap, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, notFound(err)
	}
	return snap.Value, nil
}

func (s *service) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	snap, err := s.players.FindOne(ctx, repository.Eq("username_key", domain.FoldKey(username)))
	if err != nil {
		return nil, notFound(err)
	}
	return snap.Value, nil
}

func (s *service) Update(ctx context.Context, playerID string, update ProfileUpdate) (*domain.Player, error) {
	snap, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		if p.Archived {
			return domain.ErrPlayerArchived
		}
		if update.Email != nil {
			p.Email = strings.TrimSpace(*update.Email)
		}
		if update.Settings != nil {
			p.Settings = *update.Settings
		}
		if update.Position != nil {
			p.Position = *update.Position
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	return snap.Value, nil
}

func (s *service) RecordLogin(ctx context.Context, playerID string) (*domain.Player, error) {
	now := s.now()
	snap, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		if p.Archived {
			return domain.ErrPlayerArchived
		}
		p.LastLogin = now
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}

	logger.FromContext(ctx).Debug(LogMsgPlayerLogin, "player_id", playerID)
	s.publish(ctx, event.NewPlayerEvent(event.PlayerLogin, snap.Value, now, logger.SessionIDFromContext(ctx)))
	return snap.Value, nil
}

func (s *service) Grant(ctx context.Context, playerID string, currency int, items []domain.InventoryItem) (*domain.Player, error) {
	if currency < 0 {
		return nil, fmt.Errorf("%w: currency grant must not be negative", domain.ErrInvalidInput)
	}
	for _, it := range items {
		if it.ItemID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: granted items need an item id and a positive quantity", domain.ErrInvalidInput)
		}
	}

	snap, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		if p.Archived {
			return domain.ErrPlayerArchived
		}
		p.Credit(currency)
		p.GiveItems(items...)
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	return snap.Value, nil
}

func (s *service) Archive(ctx context.Context, playerID string) (*domain.Player, error) {
	now := s.now()
	snap, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		if p.Archived {
			return store.ErrUnchanged
		}
		p.Archived = true
		p.ArchivedAt = &now
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	logger.FromContext(ctx).Info(LogMsgPlayerArchived, "player_id", playerID)
	return snap.Value, nil
}

func (s *service) TopByLevel(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	limit = min(limit, MaxLeaderboardSize)

	return s.find(ctx, repository.Query{
		Filters: []repository.Filter{{Field: "archived", Op: repository.OpNe, Value: true}},
		Sort: []repository.Sort{
			{Field: "level", Desc: true, Kind: index.KindNumber},
			{Field: "experience", Desc: true, Kind: index.KindNumber},
		},
		Limit: limit,
	})
}

func (s *service) ListByGuild(ctx context.Context, guildID string) ([]domain.Player, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild id is required", domain.ErrInvalidInput)
	}
	return s.find(ctx, repository.Query{
		Filters: []repository.Filter{repository.Eq("guild_id", guildID)},
		Sort:    []repository.Sort{{Field: "username_key", Kind: index.KindString}},
		Limit:   MaxGuildRoster,
	})
}

func (s *service) find(ctx context.Context, q repository.Query) ([]domain.Player, error) {
	snaps, err := s.players.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Player, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, *snap.Value)
	}
	return out, nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", evt.Type, "error", err)
	}
}

// notFound narrows a missing player document to ErrPlayerNotFound
func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.ErrPlayerNotFound
	}
	return err
}
