// Package server wires the HTTP surface over the core services.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nexumi/nexumi-core/internal/guild"
	"github.com/nexumi/nexumi-core/internal/handler"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/marketplace"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/middleware"
	"github.com/nexumi/nexumi-core/internal/player"
	"github.com/nexumi/nexumi-core/internal/world"
)

// Config holds the HTTP-level settings
type Config struct {
	Port           int
	Version        string
	ServiceName    string
	JWTSecret      string
	TrustedProxies []string
	RateLimit      int
	RateWindow     time.Duration
}

// Services are the core operations exposed over HTTP
type Services struct {
	Players     player.Service
	Worlds      world.Service
	Marketplace marketplace.Service
	Guilds      guild.Service
	Analytics   handler.AnalyticsRecorder
	// Readiness names the dependencies probed by /readyz
	Readiness map[string]handler.Pinger
}

// Server is the HTTP server
type Server struct {
	httpServer *http.Server
	router     chi.Router
}

// NewServer creates a new Server instance
func NewServer(cfg Config, svc Services) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	r.Use(SecurityHeadersMiddleware())
	r.Use(RateLimitMiddleware(cfg.TrustedProxies, NewRateLimiter(cfg.RateLimit, cfg.RateWindow)))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(svc.Readiness))
	r.Get("/version", handler.HandleVersion(cfg.Version))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	players := handler.NewPlayerHandler(svc.Players)
	listings := handler.NewListingHandler(svc.Marketplace)
	guilds := handler.NewGuildHandler(svc.Guilds, svc.Players)
	worlds := handler.NewWorldHandler(svc.Worlds)
	analytics := handler.NewAnalyticsHandler(svc.Analytics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(middleware.IdentityConfig{JWTSecret: cfg.JWTSecret}))

		// Public reads
		r.Get("/players/leaderboard", players.HandleLeaderboard)
		r.Get("/players/by-username/{username}", players.HandleGetByUsername)
		r.Get("/players/{playerID}", players.HandleGetPlayer)
		r.Get("/listings", listings.HandleSearch)
		r.Get("/listings/{listingID}", listings.HandleGet)
		r.Get("/guilds/{guildID}", guilds.HandleGet)
		r.Get("/guilds/{guildID}/members", guilds.HandleMembers)
		r.Get("/worlds/{worldID}", worlds.HandleGet)
		r.Post("/analytics/events", analytics.HandleRecord)
		r.Get("/analytics/events", analytics.HandleFind)

		// Player-scoped writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePlayer)

			r.Post("/players/login", players.HandleLogin)
			r.Get("/players/me", players.HandleGetMe)
			r.Patch("/players/me", players.HandleUpdateMe)
			r.Delete("/players/me", players.HandleArchiveMe)

			r.Post("/listings", listings.HandleCreate)
			r.Post("/listings/{listingID}/purchase", listings.HandlePurchase)
			r.Post("/listings/{listingID}/cancel", listings.HandleCancel)

			r.Post("/guilds", guilds.HandleCreate)
			r.Post("/guilds/{guildID}/join", guilds.HandleJoin)
			r.Post("/guilds/{guildID}/leave", guilds.HandleLeave)
			r.Post("/guilds/{guildID}/transfer", guilds.HandleTransferLeadership)
			r.Post("/guilds/{guildID}/roles", guilds.HandleChangeRole)
			r.Post("/guilds/{guildID}/treasury/deposit", guilds.HandleDeposit)
			r.Post("/guilds/{guildID}/treasury/withdraw", guilds.HandleWithdraw)

			r.Post("/worlds", worlds.HandleCreate)
			r.Put("/worlds/{worldID}/settings", worlds.HandleUpdateSettings)
			r.Put("/worlds/{worldID}/chunks/{chunkKey}", worlds.HandlePutChunk)
		})
	})

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = logger.DefaultServiceName
	}

	return &Server{
		router: r,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           otelhttp.NewHandler(r, serviceName),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// Handler returns the routed handler without tracing, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	logger.Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
