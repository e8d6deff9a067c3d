// Package analytics is the fire-and-forget analytics sink. Recording never
// blocks and never fails the gameplay operation that produced the event.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/validation"
)

// Config sizes the sink
type Config struct {
	QueueSize       int
	Workers         int
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// DeadLetterPath receives events whose writes were exhausted; empty disables it
	DeadLetterPath string
}

// DefaultConfig returns the default sink settings
func DefaultConfig() Config {
	return Config{
		QueueSize:       DefaultQueueSize,
		Workers:         DefaultWorkers,
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

// Sink validates analytics events synchronously and appends them from a
// bounded queue on background workers
type Sink struct {
	repo       repository.Analytics
	validator  validation.Validator
	cfg        Config
	queue      chan *domain.AnalyticsEvent
	deadLetter *event.DeadLetterWriter

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
	now     func() time.Time

	// drained is closed once every worker has exited and the dead-letter
	// writer is closed, which may be after a timed-out Shutdown returns
	drained  chan struct{}
	closeErr error
}

// NewSink creates a sink; call Start to launch the workers
func NewSink(repo repository.Analytics, validator validation.Validator, cfg Config) (*Sink, error) {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = max(def.MaxInterval, cfg.InitialInterval)
	}

	s := &Sink{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		queue:     make(chan *domain.AnalyticsEvent, cfg.QueueSize),
		now:       func() time.Time { return time.Now().UTC() },
		drained:   make(chan struct{}),
	}
	if cfg.DeadLetterPath != "" {
		dlw, err := event.NewDeadLetterWriter(cfg.DeadLetterPath)
		if err != nil {
			return nil, err
		}
		s.deadLetter = dlw
	}
	return s, nil
}

// Start launches the workers
func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Record validates and enqueues e without blocking. Missing ids and
// timestamps are filled in and the session id defaults to the context's.
// Invalid events and events arriving at a full queue are dropped and counted.
func (s *Sink) Record(ctx context.Context, e domain.AnalyticsEvent) {
	log := logger.FromContext(ctx)

	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if e.SessionID == "" {
		e.SessionID = logger.SessionIDFromContext(ctx)
	}

	if err := s.validator.ValidateEntity(domain.CollectionAnalytics, &e); err != nil {
		metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonInvalid).Inc()
		log.Warn(LogMsgEventInvalid, "event_name", e.EventName, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonShutdown).Inc()
		log.Warn(LogMsgSinkClosed, "event_name", e.EventName)
		return
	}

	select {
	case s.queue <- &e:
		metrics.AnalyticsQueueDepth.Set(float64(len(s.queue)))
	default:
		metrics.AnalyticsDropped.WithLabelValues(metrics.ReasonQueueFull).Inc()
		log.Warn(LogMsgQueueFull, "event_name", e.EventName, "queue_size", s.cfg.QueueSize)
	}
}

// Find reads recorded events newest first
func (s *Sink) Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultFindLimit
	}
	f.Limit = min(f.Limit, MaxFindLimit)
	return s.repo.Find(ctx, f)
}

// Subscribe records every domain event published on bus
func (s *Sink) Subscribe(bus event.Bus) {
	for _, t := range event.AllTypes {
		bus.Subscribe(t, s.handleEvent)
	}
}

func (s *Sink) handleEvent(ctx context.Context, evt event.Event) error {
	name, ok := eventNames[evt.Type]
	if !ok {
		return nil
	}

	data, ts, err := payloadData(evt.Payload)
	if err != nil {
		// analytics must not fail the publisher
		logger.FromContext(ctx).Warn(LogMsgConvertFailed, "type", evt.Type, "error", err)
		return nil
	}

	session, _ := evt.GetMetadataValue(event.MetadataSessionID).(string)
	s.Record(ctx, domain.AnalyticsEvent{
		EventName: name,
		EventData: data,
		Timestamp: ts,
		SessionID: session,
	})
	return nil
}

// payloadData flattens a typed payload into event_data and lifts its timestamp
func payloadData(payload any) (map[string]any, time.Time, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, time.Time{}, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, time.Time{}, err
	}

	var ts time.Time
	if v, ok := data["timestamp"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			ts = parsed
		}
		delete(data, "timestamp")
	}
	return data, ts, nil
}

func (s *Sink) worker() {
	defer s.wg.Done()
	for e := range s.queue {
		metrics.AnalyticsQueueDepth.Set(float64(len(s.queue)))
		s.write(e)
	}
}

// write appends one event, retrying transient failures with backoff.
// A duplicate id means an earlier attempt already landed.
func (s *Sink) write(e *domain.AnalyticsEvent) {
	ctx := context.Background()
	attempts := 0

	op := func() error {
		attempts++
		err := s.repo.Append(ctx, e)
		switch {
		case err == nil, errors.Is(err, domain.ErrDuplicateKey):
			return nil
		case errors.Is(err, domain.ErrValidation):
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialInterval
	b.MaxInterval = s.cfg.MaxInterval
	b.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)))
	if err == nil {
		metrics.AnalyticsRecorded.Inc()
		return
	}

	logger.FromContext(ctx).Error(LogMsgWriteFailed, "event_id", e.EventID, "event_name", e.EventName, "attempts", attempts, "error", err)
	if s.deadLetter == nil {
		return
	}
	evt := event.Event{Version: event.EventSchemaVersion, Type: DeadLetterType, Payload: e}
	if dlErr := s.deadLetter.Write(ctx, evt, attempts, err); dlErr != nil {
		logger.FromContext(ctx).Error(LogMsgDeadLetterFailed, "event_id", e.EventID, "error", dlErr)
		return
	}
	metrics.AnalyticsDeadLettered.Inc()
}

// Shutdown stops accepting events and waits for queued ones to be written.
// If ctx expires first it returns ctx.Err(); workers keep draining and the
// dead-letter file is closed only after the last one exits.
func (s *Sink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	close(s.queue)
	s.mu.Unlock()

	if !started {
		// nobody will drain the queue; write what is left inline
		for e := range s.queue {
			s.write(e)
		}
	}

	go func() {
		s.wg.Wait()
		if s.deadLetter != nil {
			s.closeErr = s.deadLetter.Close()
		}
		close(s.drained)
	}()

	select {
	case <-s.drained:
		logger.FromContext(ctx).Info(LogMsgSinkDrained)
		return s.closeErr
	case <-ctx.Done():
		logger.FromContext(ctx).Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}
}
