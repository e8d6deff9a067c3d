package bootstrap

import (
	"github.com/nexumi/nexumi-core/internal/config"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/validation"
)

// Repositories holds the typed entity stores, one per collection. Every one
// of them shares the substrate, the schema registry and the retry bounds.
type Repositories struct {
	Players   *store.Repository[domain.Player]
	Worlds    *store.Repository[domain.World]
	Listings  *store.Repository[domain.Listing]
	Guilds    *store.Repository[domain.Guild]
	Analytics *store.Repository[domain.AnalyticsEvent]
}

// StoreConfig maps the retry settings onto the entity store
func StoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
	}
}

// InitializeRepositories creates the entity stores over docs
func InitializeRepositories(docs repository.Documents, registry validation.Validator, cfg store.Config) *Repositories {
	return &Repositories{
		Players:   store.New(domain.CollectionPlayers, docs, registry, domain.PlayerIDOf, cfg),
		Worlds:    store.New(domain.CollectionWorlds, docs, registry, domain.WorldIDOf, cfg),
		Listings:  store.New(domain.CollectionMarketplace, docs, registry, domain.ListingIDOf, cfg),
		Guilds:    store.New(domain.CollectionGuilds, docs, registry, domain.GuildIDOf, cfg),
		Analytics: store.New(domain.CollectionAnalytics, docs, registry, domain.AnalyticsEventIDOf, cfg),
	}
}
