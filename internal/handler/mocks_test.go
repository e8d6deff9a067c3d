package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/guild"
	"github.com/nexumi/nexumi-core/internal/marketplace"
	"github.com/nexumi/nexumi-core/internal/middleware"
	"github.com/nexumi/nexumi-core/internal/player"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/world"
)

// MockPlayerService mocks player.Service
type MockPlayerService struct {
	mock.Mock
}

var _ player.Service = (*MockPlayerService)(nil)

func playerOrNil(v any) *domain.Player {
	if v == nil {
		return nil
	}
	return v.(*domain.Player)
}

func (m *MockPlayerService) Create(ctx context.Context, req player.CreateRequest) (*domain.Player, error) {
	args := m.Called(ctx, req)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) Login(ctx context.Context, req player.CreateRequest) (*domain.Player, bool, error) {
	args := m.Called(ctx, req)
	return playerOrNil(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockPlayerService) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	args := m.Called(ctx, playerID)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	args := m.Called(ctx, username)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) Update(ctx context.Context, playerID string, update player.ProfileUpdate) (*domain.Player, error) {
	args := m.Called(ctx, playerID, update)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) RecordLogin(ctx context.Context, playerID string) (*domain.Player, error) {
	args := m.Called(ctx, playerID)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) Grant(ctx context.Context, playerID string, currency int, items []domain.InventoryItem) (*domain.Player, error) {
	args := m.Called(ctx, playerID, currency, items)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) Archive(ctx context.Context, playerID string) (*domain.Player, error) {
	args := m.Called(ctx, playerID)
	return playerOrNil(args.Get(0)), args.Error(1)
}

func (m *MockPlayerService) TopByLevel(ctx context.Context, limit int) ([]domain.Player, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Player), args.Error(1)
}

func (m *MockPlayerService) ListByGuild(ctx context.Context, guildID string) ([]domain.Player, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Player), args.Error(1)
}

// MockMarketplaceService mocks marketplace.Service
type MockMarketplaceService struct {
	mock.Mock
}

var _ marketplace.Service = (*MockMarketplaceService)(nil)

func listingOrNil(v any) *domain.Listing {
	if v == nil {
		return nil
	}
	return v.(*domain.Listing)
}

func (m *MockMarketplaceService) List(ctx context.Context, sellerID string, req marketplace.ListRequest) (*domain.Listing, error) {
	args := m.Called(ctx, sellerID, req)
	return listingOrNil(args.Get(0)), args.Error(1)
}

func (m *MockMarketplaceService) Purchase(ctx context.Context, buyerID, listingID string) (*marketplace.PurchaseResult, error) {
	args := m.Called(ctx, buyerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.PurchaseResult), args.Error(1)
}

func (m *MockMarketplaceService) Cancel(ctx context.Context, sellerID, listingID string) (*domain.Listing, error) {
	args := m.Called(ctx, sellerID, listingID)
	return listingOrNil(args.Get(0)), args.Error(1)
}

func (m *MockMarketplaceService) ExpireSweep(ctx context.Context, now time.Time, batch int) (*marketplace.SweepResult, error) {
	args := m.Called(ctx, now, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.SweepResult), args.Error(1)
}

func (m *MockMarketplaceService) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	args := m.Called(ctx, listingID)
	return listingOrNil(args.Get(0)), args.Error(1)
}

func (m *MockMarketplaceService) Search(ctx context.Context, filter marketplace.ListingFilter) ([]domain.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

// MockGuildService mocks guild.Service
type MockGuildService struct {
	mock.Mock
}

var _ guild.Service = (*MockGuildService)(nil)

func guildOrNil(v any) *domain.Guild {
	if v == nil {
		return nil
	}
	return v.(*domain.Guild)
}

func (m *MockGuildService) Create(ctx context.Context, creatorID string, req guild.CreateRequest) (*domain.Guild, error) {
	args := m.Called(ctx, creatorID, req)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) Get(ctx context.Context, guildID string) (*domain.Guild, error) {
	args := m.Called(ctx, guildID)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) Join(ctx context.Context, guildID, playerID string) (*domain.Guild, error) {
	args := m.Called(ctx, guildID, playerID)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) Leave(ctx context.Context, guildID, playerID string) (*guild.LeaveResult, error) {
	args := m.Called(ctx, guildID, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guild.LeaveResult), args.Error(1)
}

func (m *MockGuildService) TransferLeadership(ctx context.Context, guildID, leaderID, newLeaderID string) (*domain.Guild, error) {
	args := m.Called(ctx, guildID, leaderID, newLeaderID)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) ChangeRole(ctx context.Context, guildID, actorID, targetID string, role domain.GuildRole) (*domain.Guild, error) {
	args := m.Called(ctx, guildID, actorID, targetID, role)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) Deposit(ctx context.Context, guildID, playerID string, amount int) (*domain.Guild, error) {
	args := m.Called(ctx, guildID, playerID, amount)
	return guildOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGuildService) Withdraw(ctx context.Context, guildID, playerID string, amount int) (*domain.Guild, error) {
	args := m.Called(ctx, guildID, playerID, amount)
	return guildOrNil(args.Get(0)), args.Error(1)
}

// MockWorldService mocks world.Service
type MockWorldService struct {
	mock.Mock
}

var _ world.Service = (*MockWorldService)(nil)

func worldOrNil(v any) *domain.World {
	if v == nil {
		return nil
	}
	return v.(*domain.World)
}

func (m *MockWorldService) Create(ctx context.Context, req world.CreateRequest) (*domain.World, error) {
	args := m.Called(ctx, req)
	return worldOrNil(args.Get(0)), args.Error(1)
}

func (m *MockWorldService) Get(ctx context.Context, worldID string) (*domain.World, error) {
	args := m.Called(ctx, worldID)
	return worldOrNil(args.Get(0)), args.Error(1)
}

func (m *MockWorldService) UpdateSettings(ctx context.Context, worldID string, settings domain.WorldSettings) (*domain.World, error) {
	args := m.Called(ctx, worldID, settings)
	return worldOrNil(args.Get(0)), args.Error(1)
}

func (m *MockWorldService) PutChunk(ctx context.Context, worldID, chunkKey string, data json.RawMessage) (*domain.World, error) {
	args := m.Called(ctx, worldID, chunkKey, data)
	return worldOrNil(args.Get(0)), args.Error(1)
}

// MockAnalytics mocks AnalyticsRecorder
type MockAnalytics struct {
	mock.Mock
}

func (m *MockAnalytics) Record(ctx context.Context, e domain.AnalyticsEvent) {
	m.Called(ctx, e)
}

func (m *MockAnalytics) Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalyticsEvent), args.Error(1)
}

// serve routes a single request through a chi router so URL parameters
// resolve, acting as playerID when it is non-empty.
func serve(method, pattern, target, playerID, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if playerID != "" {
		req = req.WithContext(middleware.WithPlayerID(req.Context(), playerID))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
