package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/analytics"
	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/guild"
	"github.com/nexumi/nexumi-core/internal/handler"
	"github.com/nexumi/nexumi-core/internal/marketplace"
	"github.com/nexumi/nexumi-core/internal/middleware"
	"github.com/nexumi/nexumi-core/internal/player"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/validation"
	"github.com/nexumi/nexumi-core/internal/world"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	docs := memory.NewStore()
	registry := validation.MustRegistry()
	bus := event.NewMemoryBus()
	storeCfg := store.DefaultConfig()

	players := store.New(domain.CollectionPlayers, docs, registry, domain.PlayerIDOf, storeCfg)
	worlds := store.New(domain.CollectionWorlds, docs, registry, domain.WorldIDOf, storeCfg)
	listings := store.New(domain.CollectionMarketplace, docs, registry, domain.ListingIDOf, storeCfg)
	guilds := store.New(domain.CollectionGuilds, docs, registry, domain.GuildIDOf, storeCfg)
	events := store.New(domain.CollectionAnalytics, docs, registry, domain.AnalyticsEventIDOf, storeCfg)

	sink, err := analytics.NewSink(analytics.NewStoreRepository(events), registry, analytics.DefaultConfig())
	require.NoError(t, err)

	srv := NewServer(cfg, Services{
		Players:     player.NewService(players, bus, player.DefaultConfig()),
		Worlds:      world.NewService(worlds, world.CacheConfig{Size: 8, TTL: time.Minute}),
		Marketplace: marketplace.NewService(players, listings, bus, marketplace.DefaultConfig()),
		Guilds:      guild.NewService(guilds, players, nil, bus, guild.DefaultConfig()),
		Analytics:   sink,
		Readiness:   map[string]handler.Pinger{"store": docs},
	})
	return srv.Handler()
}

func do(h http.Handler, method, path string, header http.Header, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1000"
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_OperationalRoutes(t *testing.T) {
	h := newTestServer(t, Config{Version: "1.2.3"})

	rec := do(h, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HeaderValueDeny, rec.Header().Get(HeaderFrameOptions))

	rec = do(h, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/version", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info handler.VersionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)

	rec = do(h, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GatewayIdentity(t *testing.T) {
	h := newTestServer(t, Config{})
	as := func(id string) http.Header {
		return http.Header{middleware.HeaderPlayerID: {id}, "Content-Type": {"application/json"}}
	}

	rec := do(h, http.MethodPost, "/api/v1/players/login", nil, `{"username":"ghost"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "writes need an identity")

	rec = do(h, http.MethodPost, "/api/v1/players/login", as("p_1"), `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/players/me", as("p_1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)

	rec = do(h, http.MethodGet, "/api/v1/players/p_1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "profile reads are public")

	rec = do(h, http.MethodGet, "/api/v1/listings", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_BearerIdentity(t *testing.T) {
	h := newTestServer(t, Config{JWTSecret: testSecret})

	token, err := middleware.IssuePlayerToken("p_2", testSecret, time.Now(), time.Hour)
	require.NoError(t, err)

	rec := do(h, http.MethodPost, "/api/v1/players/login", http.Header{
		middleware.HeaderAuthorization: {middleware.BearerPrefix + token},
	}, `{"username":"bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/players/me", http.Header{
		middleware.HeaderPlayerID: {"p_2"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the gateway header is ignored once tokens are required")

	rec = do(h, http.MethodGet, "/api/v1/players/me", http.Header{
		middleware.HeaderAuthorization: {middleware.BearerPrefix + "not-a-token"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, Config{RateLimit: 2, RateWindow: time.Hour})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/healthz", nil, "").Code)
}

func TestServer_OversizedBody(t *testing.T) {
	h := newTestServer(t, Config{})
	body := `{"username":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`

	rec := do(h, http.MethodPost, "/api/v1/players/login", http.Header{middleware.HeaderPlayerID: {"p_3"}}, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
