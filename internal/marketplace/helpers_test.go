package marketplace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/validation"
)

var registry = validation.MustRegistry()

// faultyDocs lets a test fail selected Replace calls
type faultyDocs struct {
	repository.Documents
	mu       sync.Mutex
	replaces map[domain.Collection]int
	fail     func(coll domain.Collection, n int) error
}

func (f *faultyDocs) Replace(ctx context.Context, coll domain.Collection, id string, version int64, body []byte) (repository.Record, error) {
	f.mu.Lock()
	f.replaces[coll]++
	n := f.replaces[coll]
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		if err := fail(coll, n); err != nil {
			return repository.Record{}, err
		}
	}
	return f.Documents.Replace(ctx, coll, id, version, body)
}

type fixture struct {
	svc      *service
	players  *store.Repository[domain.Player]
	listings *store.Repository[domain.Listing]
	docs     *faultyDocs
	events   *eventLog
	now      time.Time
}

type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func (l *eventLog) handle(_ context.Context, evt event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	return nil
}

func (l *eventLog) count(t event.Type) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// newFixture uses a generous retry bound so heavily contended tests only
// observe domain outcomes, never retry exhaustion
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, store.Config{MaxAttempts: 100, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})
}

func newFixtureWithStore(t *testing.T, cfg store.Config) *fixture {
	t.Helper()
	docs := &faultyDocs{Documents: memory.NewStore(), replaces: map[domain.Collection]int{}}
	players := store.New(domain.CollectionPlayers, docs, registry, domain.PlayerIDOf, cfg)
	listings := store.New(domain.CollectionMarketplace, docs, registry, domain.ListingIDOf, cfg)

	bus := event.NewMemoryBus()
	log := &eventLog{}
	for _, typ := range event.AllTypes {
		bus.Subscribe(typ, log.handle)
	}

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := NewService(players, listings, bus, DefaultConfig()).(*service)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, players: players, listings: listings, docs: docs, events: log, now: now}
}

func (f *fixture) addPlayer(t *testing.T, id string, currency int, items ...domain.InventoryItem) {
	t.Helper()
	if items == nil {
		items = []domain.InventoryItem{}
	}
	_, err := f.players.Create(context.Background(), &domain.Player{
		PlayerID:    id,
		Username:    id,
		UsernameKey: domain.FoldKey(id),
		Level:       1,
		Health:      100,
		MaxHealth:   100,
		Currency:    currency,
		Inventory:   items,
		CreatedAt:   f.now,
		LastLogin:   f.now,
	})
	require.NoError(t, err)
}

func (f *fixture) player(t *testing.T, id string) *domain.Player {
	t.Helper()
	snap, err := f.players.Get(context.Background(), id)
	require.NoError(t, err)
	return snap.Value
}

func (f *fixture) listing(t *testing.T, id string) *domain.Listing {
	t.Helper()
	snap, err := f.listings.Get(context.Background(), id)
	require.NoError(t, err)
	return snap.Value
}

func (f *fixture) failReplaces(fn func(coll domain.Collection, n int) error) {
	f.docs.mu.Lock()
	defer f.docs.mu.Unlock()
	f.docs.replaces = map[domain.Collection]int{}
	f.docs.fail = fn
}

func durability(v int) *int {
	return &v
}
