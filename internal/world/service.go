// Package world serves world documents, which are read far more often than written.
package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/store"
)

// Cache defaults
const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 5 * time.Minute
)

// CreateRequest describes a generated world
type CreateRequest struct {
	WorldID          string
	Name             string
	Description      string
	Seed             int64
	Difficulty       string
	Settings         domain.WorldSettings
	GlobalStructures map[string]domain.Coordinates
}

// Service defines world operations
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*domain.World, error)
	Get(ctx context.Context, worldID string) (*domain.World, error)
	UpdateSettings(ctx context.Context, worldID string, settings domain.WorldSettings) (*domain.World, error)
	// PutChunk stores generated terrain under a "<x>_<y>" chunk key
	PutChunk(ctx context.Context, worldID, chunkKey string, data json.RawMessage) (*domain.World, error)
}

type service struct {
	worlds *store.Repository[domain.World]
	cache  *worldCache
	now    func() time.Time
}

// NewService creates a new world service
func NewService(worlds *store.Repository[domain.World], cacheCfg CacheConfig) Service {
	if cacheCfg.Size <= 0 {
		cacheCfg.Size = DefaultCacheSize
	}
	if cacheCfg.TTL <= 0 {
		cacheCfg.TTL = DefaultCacheTTL
	}
	return &service{
		worlds: worlds,
		cache:  newWorldCache(cacheCfg),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*domain.World, error) {
	now := s.now()
	w := &domain.World{
		WorldID:          strings.TrimSpace(req.WorldID),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Seed:             req.Seed,
		Difficulty:       req.Difficulty,
		Settings:         req.Settings,
		Chunks:           map[string]json.RawMessage{},
		GlobalStructures: req.GlobalStructures,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if w.Difficulty == "" {
		w.Difficulty = domain.DifficultyNormal
	}

	snap, err := s.worlds.Create(ctx, w)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("World created", "world_id", w.WorldID)
	s.cache.Set(snap.Value, snap.Version)
	return snap.Value, nil
}

func (s *service) Get(ctx context.Context, worldID string) (*domain.World, error) {
	if w, ok := s.cache.Get(worldID); ok {
		return w, nil
	}

	snap, err := s.worlds.Get(ctx, worldID)
	if err != nil {
		return nil, notFound(err)
	}
	s.cache.Set(snap.Value, snap.Version)
	return snap.Value, nil
}

func (s *service) UpdateSettings(ctx context.Context, worldID string, settings domain.WorldSettings) (*domain.World, error) {
	return s.update(ctx, worldID, func(w *domain.World) error {
		if w.Settings == settings {
			return store.ErrUnchanged
		}
		w.Settings = settings
		return nil
	})
}

func (s *service) PutChunk(ctx context.Context, worldID, chunkKey string, data json.RawMessage) (*domain.World, error) {
	if err := validateChunkKey(chunkKey); err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: chunk data is not valid JSON", domain.ErrInvalidInput)
	}

	return s.update(ctx, worldID, func(w *domain.World) error {
		if w.Chunks == nil {
			w.Chunks = make(map[string]json.RawMessage)
		}
		w.Chunks[chunkKey] = data
		return nil
	})
}

func (s *service) update(ctx context.Context, worldID string, mutate store.Mutation[domain.World]) (*domain.World, error) {
	now := s.now()
	s.cache.Invalidate(worldID)

	snap, err := s.worlds.Update(ctx, worldID, func(w *domain.World) error {
		if err := mutate(w); err != nil {
			return err
		}
		w.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	s.cache.Set(snap.Value, snap.Version)
	return snap.Value, nil
}

func validateChunkKey(key string) error {
	x, y, ok := strings.Cut(key, "_")
	if ok {
		_, errX := strconv.Atoi(x)
		_, errY := strconv.Atoi(y)
		if errX == nil && errY == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: chunk key %q must be <x>_<y>", domain.ErrInvalidInput, key)
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrWorldNotFound) {
		return domain.ErrWorldNotFound
	}
	return err
}
