package analytics

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/testing/leaktest"
	"github.com/nexumi/nexumi-core/internal/validation"
)

var registry = validation.MustRegistry()

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Append(ctx context.Context, e *domain.AnalyticsEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalyticsEvent), args.Error(1)
}

func newStoreRepo() *StoreRepository {
	events := store.New(domain.CollectionAnalytics, memory.NewStore(), registry, domain.AnalyticsEventIDOf, store.DefaultConfig())
	return NewStoreRepository(events)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	cfg.MaxAttempts = 3
	return cfg
}

func shutdown(t *testing.T, s *Sink) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestSink_RecordAndFind(t *testing.T) {
	repo := newStoreRepo()
	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()

	ctx := logger.WithSessionID(context.Background(), "session_xyz789")
	sink.Record(ctx, domain.AnalyticsEvent{EventName: "player_login", EventData: map[string]any{"player_id": "player_001"}})
	sink.Record(ctx, domain.AnalyticsEvent{EventName: "item_crafted"})
	shutdown(t, sink)

	all, err := repo.Find(context.Background(), repository.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, e := range all {
		assert.NotEmpty(t, e.EventID)
		assert.False(t, e.Timestamp.IsZero())
		assert.Equal(t, "session_xyz789", e.SessionID)
	}

	logins, err := repo.Find(context.Background(), repository.AnalyticsFilter{EventName: "player_login"})
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Equal(t, "player_001", logins[0].EventData["player_id"])
}

func TestSink_DropsInvalidEvents(t *testing.T) {
	repo := new(MockRepository)
	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()

	before := testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonInvalid))
	sink.Record(context.Background(), domain.AnalyticsEvent{EventName: ""})
	shutdown(t, sink)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonInvalid)))
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSink_QueueFullNeverBlocks(t *testing.T) {
	repo := newStoreRepo()
	cfg := fastConfig()
	cfg.QueueSize = 1
	sink, err := NewSink(repo, registry, cfg)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonQueueFull))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			sink.Record(context.Background(), domain.AnalyticsEvent{EventName: "tick"})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	assert.Equal(t, before+2, testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonQueueFull)))

	// never started: shutdown writes the queued event inline
	shutdown(t, sink)
	all, err := repo.Find(context.Background(), repository.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSink_RecordAfterShutdown(t *testing.T) {
	repo := new(MockRepository)
	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()
	shutdown(t, sink)

	before := testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonShutdown))
	sink.Record(context.Background(), domain.AnalyticsEvent{EventName: "late"})
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonShutdown)))

	require.NoError(t, sink.Shutdown(context.Background()), "shutdown is idempotent")
}

func TestSink_RetriesTransientFailures(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	repo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()

	before := testutil.ToFloat64(metrics.AnalyticsRecorded)
	sink.Record(context.Background(), domain.AnalyticsEvent{EventName: "player_login"})
	shutdown(t, sink)

	repo.AssertNumberOfCalls(t, "Append", 2)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalyticsRecorded))
}

func TestSink_DuplicateCountsAsWritten(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(domain.ErrDuplicateKey).Once()

	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()
	sink.Record(context.Background(), domain.AnalyticsEvent{EventID: "evt_1", EventName: "player_login"})
	shutdown(t, sink)

	repo.AssertNumberOfCalls(t, "Append", 1)
}

func TestSink_DeadLettersExhaustedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics_deadletter.jsonl")
	repo := new(MockRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("store down"))

	cfg := fastConfig()
	cfg.DeadLetterPath = path
	sink, err := NewSink(repo, registry, cfg)
	require.NoError(t, err)
	sink.Start()

	sink.Record(context.Background(), domain.AnalyticsEvent{EventID: "evt_lost", EventName: "listing_sold"})
	shutdown(t, sink)

	repo.AssertNumberOfCalls(t, "Append", cfg.MaxAttempts)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var entry struct {
		Event struct {
			Type    string                `json:"type"`
			Payload domain.AnalyticsEvent `json:"payload"`
		} `json:"event"`
		Attempts  int    `json:"attempts"`
		LastError string `json:"last_error"`
	}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, string(DeadLetterType), entry.Event.Type)
	assert.Equal(t, "evt_lost", entry.Event.Payload.EventID)
	assert.Equal(t, cfg.MaxAttempts, entry.Attempts)
	assert.Equal(t, "store down", entry.LastError)
	assert.False(t, scanner.Scan(), "one entry per lost event")
}

// gatedRepository blocks every Append until release is closed, then fails
type gatedRepository struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepository) Append(ctx context.Context, _ *domain.AnalyticsEvent) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return errors.New("store down")
}

func (g *gatedRepository) Find(context.Context, repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	return nil, nil
}

func TestSink_TimedOutShutdownKeepsDeadLetterOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics_deadletter.jsonl")
	repo := &gatedRepository{entered: make(chan struct{}, 1), release: make(chan struct{})}

	cfg := fastConfig()
	cfg.Workers = 1
	cfg.MaxAttempts = 1
	cfg.DeadLetterPath = path
	sink, err := NewSink(repo, registry, cfg)
	require.NoError(t, err)
	sink.Start()

	sink.Record(context.Background(), domain.AnalyticsEvent{EventID: "evt_slow", EventName: "listing_sold"})
	<-repo.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sink.Shutdown(ctx), context.DeadlineExceeded)

	close(repo.release)
	select {
	case <-sink.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not finish after release")
	}
	assert.NoError(t, sink.closeErr)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "evt_slow", "the late failure still reaches the dead letter")
}

func TestSink_SubscribeConvertsDomainEvents(t *testing.T) {
	repo := newStoreRepo()
	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)
	sink.Start()

	bus := event.NewMemoryBus()
	sink.Subscribe(bus)

	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	p := &domain.Player{PlayerID: "player_001", Username: "DragonSlayer99"}
	require.NoError(t, bus.Publish(context.Background(), event.NewPlayerEvent(event.PlayerLogin, p, at, "session_xyz789")))
	require.NoError(t, bus.Publish(context.Background(), event.NewGuildEvent(event.GuildTreasuryChanged, event.GuildPayloadV1{
		GuildID: "guild_001", PlayerID: "player_001", Amount: 50, Treasury: 550, Timestamp: at,
	}, "")))
	shutdown(t, sink)

	logins, err := repo.Find(context.Background(), repository.AnalyticsFilter{EventName: domain.EventNamePlayerLogin})
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Equal(t, "session_xyz789", logins[0].SessionID)
	assert.True(t, logins[0].Timestamp.Equal(at))
	assert.Equal(t, "player_001", logins[0].EventData["player_id"])
	assert.NotContains(t, logins[0].EventData, "timestamp")

	treasury, err := repo.Find(context.Background(), repository.AnalyticsFilter{EventName: domain.EventNameGuildTreasury})
	require.NoError(t, err)
	require.Len(t, treasury, 1)
	assert.Equal(t, 550.0, treasury[0].EventData["treasury"])
}

func TestSink_FindDefaultsLimit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Find", mock.Anything, repository.AnalyticsFilter{EventName: "x", Limit: DefaultFindLimit}).Return([]domain.AnalyticsEvent{}, nil)

	sink, err := NewSink(repo, registry, fastConfig())
	require.NoError(t, err)

	_, err = sink.Find(context.Background(), repository.AnalyticsFilter{EventName: "x"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSink_NoGoroutineLeak(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)

	cfg := fastConfig()
	cfg.Workers = 4
	sink, err := NewSink(newStoreRepo(), registry, cfg)
	require.NoError(t, err)
	sink.Start()
	for i := 0; i < 50; i++ {
		sink.Record(context.Background(), domain.AnalyticsEvent{EventName: "tick"})
	}
	shutdown(t, sink)

	checker.Check(0)
}
