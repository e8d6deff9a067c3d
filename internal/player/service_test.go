package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/validation"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func setup(t *testing.T) (*service, *recorder) {
	t.Helper()
	repo := store.New(domain.CollectionPlayers, memory.NewStore(), validation.MustRegistry(), domain.PlayerIDOf, store.DefaultConfig())
	bus := event.NewMemoryBus()
	rec := &recorder{}
	for _, typ := range event.AllTypes {
		bus.Subscribe(typ, rec.handle)
	}
	svc := NewService(repo, bus, DefaultConfig()).(*service)
	return svc, rec
}

func TestCreate_Defaults(t *testing.T) {
	svc, rec := setup(t)
	ctx := logger.WithSessionID(context.Background(), "sess-1")

	p, err := svc.Create(ctx, CreateRequest{PlayerID: "player_001", Username: "DragonSlayer99", Email: "dragon@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 100, p.Health)
	assert.Equal(t, 100, p.MaxHealth)
	assert.Equal(t, DefaultStartingCurrency, p.Currency)
	assert.Empty(t, p.Inventory)
	assert.Equal(t, "dragonslayer99", p.UsernameKey)
	assert.Equal(t, DefaultWorldID, p.Position.WorldID)
	assert.Len(t, p.EquippedItems, 3)

	require.Len(t, rec.events, 1)
	assert.Equal(t, event.PlayerCreated, rec.events[0].Type)
	assert.Equal(t, "sess-1", rec.events[0].GetMetadataValue(event.MetadataSessionID))
}

func TestCreate_Errors(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{PlayerID: "p1", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing id", CreateRequest{Username: "bob"}, domain.ErrInvalidInput},
		{"duplicate id", CreateRequest{PlayerID: "p1", Username: "bobby"}, domain.ErrDuplicateKey},
		{"duplicate username ignoring case", CreateRequest{PlayerID: "p2", Username: "ALICE"}, domain.ErrDuplicateKey},
		{"username too short", CreateRequest{PlayerID: "p3", Username: "ab"}, domain.ErrValidation},
		{"bad email", CreateRequest{PlayerID: "p4", Username: "carol", Email: "not-an-email"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin_CreatesOnFirstLogin(t *testing.T) {
	svc, rec := setup(t)
	ctx := context.Background()

	p, created, err := svc.Login(ctx, CreateRequest{PlayerID: "p1", Username: "alice"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice", p.Username)

	later := p.LastLogin.Add(time.Hour)
	svc.now = func() time.Time { return later }

	p, created, err = svc.Login(ctx, CreateRequest{PlayerID: "p1", Username: "alice"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, p.LastLogin.Equal(later))

	assert.Equal(t, []event.Type{event.PlayerCreated, event.PlayerLogin, event.PlayerLogin}, rec.types())
}

func TestGetByUsername(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{PlayerID: "p1", Username: "DragonSlayer99"})
	require.NoError(t, err)

	p, err := svc.GetByUsername(ctx, "dragonslayer99")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.PlayerID)

	_, err = svc.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAndArchive(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{PlayerID: "p1", Username: "alice"})
	require.NoError(t, err)

	email := "alice@example.com"
	p, err := svc.Update(ctx, "p1", ProfileUpdate{
		Email:    &email,
		Position: &domain.Position{WorldID: "main_world", X: 10, Y: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, email, p.Email)
	assert.Equal(t, 10.0, p.Position.X)

	archived, err := svc.Archive(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)

	again, err := svc.Archive(ctx, "p1")
	require.NoError(t, err, "archive is idempotent")
	assert.Equal(t, archived.ArchivedAt.Unix(), again.ArchivedAt.Unix())

	_, err = svc.Update(ctx, "p1", ProfileUpdate{Email: &email})
	assert.ErrorIs(t, err, domain.ErrPlayerArchived)

	_, err = svc.RecordLogin(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGrant(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{PlayerID: "p1", Username: "alice"})
	require.NoError(t, err)

	p, err := svc.Grant(ctx, "p1", 50, []domain.InventoryItem{{ItemID: "health_potion", Quantity: 5}})
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingCurrency+50, p.Currency)
	assert.Equal(t, 5, p.CountItem("health_potion"))

	_, err = svc.Grant(ctx, "p1", -1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Grant(ctx, "p1", 0, []domain.InventoryItem{{ItemID: "x", Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTopByLevelAndListByGuild(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	levels := map[string]int{"alice": 5, "bob": 12, "carol": 8, "dave": 20}
	for name, level := range levels {
		_, err := svc.Create(ctx, CreateRequest{PlayerID: name, Username: name})
		require.NoError(t, err)
		_, err = svc.players.Update(ctx, name, func(p *domain.Player) error {
			p.Level = level
			if name != "dave" {
				p.GuildID = "guild_001"
			}
			return nil
		})
		require.NoError(t, err)
	}
	_, err := svc.Archive(ctx, "dave")
	require.NoError(t, err)

	top, err := svc.TopByLevel(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].PlayerID)
	assert.Equal(t, "carol", top[1].PlayerID)

	roster, err := svc.ListByGuild(ctx, "guild_001")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "alice", roster[0].Username)

	_, err = svc.ListByGuild(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
