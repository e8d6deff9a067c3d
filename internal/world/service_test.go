package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/validation"
)

func newService(t *testing.T) (*service, *store.Repository[domain.World]) {
	t.Helper()
	repo := store.New(domain.CollectionWorlds, memory.NewStore(), validation.MustRegistry(), domain.WorldIDOf, store.DefaultConfig())
	return NewService(repo, CacheConfig{Size: 4, TTL: time.Minute}).(*service), repo
}

func mainWorld() CreateRequest {
	return CreateRequest{
		WorldID:    "main_world",
		Name:       "Main World",
		Seed:       12345,
		Difficulty: domain.DifficultyNormal,
		Settings:   domain.WorldSettings{BuildingEnabled: true, RespawnOnDeath: true},
		GlobalStructures: map[string]domain.Coordinates{
			"spawn_point": {X: 0, Y: 0},
			"main_town":   {X: 100, Y: 100},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, mainWorld())
	require.NoError(t, err)
	assert.Equal(t, int64(12345), w.Seed)

	got, err := svc.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, "Main World", got.Name)
	assert.Equal(t, 100.0, got.GlobalStructures["main_town"].X)

	_, err = svc.Create(ctx, mainWorld())
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = svc.Get(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrWorldNotFound)
}

func TestGet_ServesFromCache(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, mainWorld())
	require.NoError(t, err)

	// a write behind the service's back is not seen until the entry is invalidated
	_, err = repo.Update(ctx, "main_world", func(w *domain.World) error {
		w.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)

	cached, err := svc.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, "Main World", cached.Name)

	cached.GlobalStructures["spawn_point"] = domain.Coordinates{X: 9, Y: 9}
	again, err := svc.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.GlobalStructures["spawn_point"].X, "cached copy must not be shared")

	svc.cache.Invalidate("main_world")
	fresh, err := svc.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Name)
}

func TestUpdateSettings(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, mainWorld())
	require.NoError(t, err)

	settings := domain.WorldSettings{PvPEnabled: true, BuildingEnabled: true, RespawnOnDeath: true}
	w, err := svc.UpdateSettings(ctx, "main_world", settings)
	require.NoError(t, err)
	assert.True(t, w.Settings.PvPEnabled)

	snap, err := repo.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)

	_, err = svc.UpdateSettings(ctx, "main_world", settings)
	require.NoError(t, err)
	snap, err = repo.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version, "identical settings do not write")

	cached, err := svc.Get(ctx, "main_world")
	require.NoError(t, err)
	assert.True(t, cached.Settings.PvPEnabled)
}

func TestPutChunk(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, mainWorld())
	require.NoError(t, err)

	w, err := svc.PutChunk(ctx, "main_world", "0_-1", json.RawMessage(`{"biome":"forest"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"biome":"forest"}`, string(w.Chunks["0_-1"]))

	_, err = svc.PutChunk(ctx, "main_world", "zero", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.PutChunk(ctx, "main_world", "1_1", json.RawMessage(`{`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.PutChunk(ctx, "missing", "1_1", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrWorldNotFound)
}

func TestCache_Eviction(t *testing.T) {
	c := newWorldCache(CacheConfig{Size: 2, TTL: time.Minute})
	for _, id := range []string{"a", "b", "c"} {
		c.Set(&domain.World{WorldID: id}, 1)
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set(&domain.World{WorldID: "b", Name: "new"}, 3)
	c.Set(&domain.World{WorldID: "b", Name: "old"}, 2)
	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
}
