package event

import (
	"context"
	"sync"
	"time"

	"github.com/nexumi/nexumi-core/internal/logger"
)

type retryEntry struct {
	event     Event
	attempt   int
	nextRetry time.Time
	lastErr   error
}

// ResilientPublisher wraps an event Bus with background retries and a dead-letter file.
// Publishing never fails the caller: an event that cannot be delivered is
// retried with exponential backoff and finally written to the dead-letter file.
type ResilientPublisher struct {
	bus          Bus
	retryQueue   chan retryEntry
	maxRetries   int
	retryDelay   time.Duration
	deadLetter   *DeadLetterWriter
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

var _ Bus = (*ResilientPublisher)(nil)

// NewResilientPublisher creates a publisher and starts its retry worker
func NewResilientPublisher(bus Bus, maxRetries int, retryDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dl, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}

	rp := &ResilientPublisher{
		bus:        bus,
		retryQueue: make(chan retryEntry, RetryQueueBufferSize),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		deadLetter: dl,
		shutdown:   make(chan struct{}),
	}

	rp.wg.Add(1)
	go rp.retryWorker()
	return rp, nil
}

// Publish implements Bus. It never returns an error.
func (rp *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	rp.PublishWithRetry(ctx, event)
	return nil
}

// Subscribe delegates to the wrapped bus
func (rp *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	rp.bus.Subscribe(eventType, handler)
}

// PublishWithRetry makes one synchronous attempt and queues the event for retry on failure
func (rp *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	err := rp.bus.Publish(ctx, event)
	if err == nil {
		return
	}

	logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "event_type", event.Type, "error", err)
	rp.enqueue(ctx, retryEntry{
		event:     event,
		attempt:   1,
		nextRetry: time.Now().Add(CalculateRetryDelay(rp.retryDelay, 1)),
		lastErr:   err,
	})
}

func (rp *ResilientPublisher) enqueue(ctx context.Context, entry retryEntry) {
	select {
	case rp.retryQueue <- entry:
	default:
		logger.FromContext(ctx).Error(LogMsgRetryQueueFull, "event_type", entry.event.Type)
		rp.writeDeadLetter(ctx, entry)
	}
}

func (rp *ResilientPublisher) retryWorker() {
	defer rp.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-rp.shutdown:
			rp.drain(ctx)
			return
		case entry := <-rp.retryQueue:
			if wait := time.Until(entry.nextRetry); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-rp.shutdown:
					timer.Stop()
					rp.attempt(ctx, entry, false)
					rp.drain(ctx)
					return
				}
			}
			rp.attempt(ctx, entry, true)
		}
	}
}

// attempt retries one event. With requeue false a failure goes straight to the dead-letter file.
func (rp *ResilientPublisher) attempt(ctx context.Context, entry retryEntry, requeue bool) {
	err := rp.bus.Publish(ctx, entry.event)
	if err == nil {
		logger.FromContext(ctx).Info(LogMsgEventRetrySucceeded, "event_type", entry.event.Type, "attempt", entry.attempt)
		return
	}

	entry.lastErr = err
	if !requeue || entry.attempt >= rp.maxRetries {
		logger.FromContext(ctx).Warn(LogMsgEventRetryExhausted, "event_type", entry.event.Type, "attempts", entry.attempt+1)
		rp.writeDeadLetter(ctx, entry)
		return
	}

	entry.attempt++
	entry.nextRetry = time.Now().Add(CalculateRetryDelay(rp.retryDelay, entry.attempt))
	logger.FromContext(ctx).Debug(LogMsgEventRetryFailed, "event_type", entry.event.Type, "attempt", entry.attempt, "error", err)
	rp.enqueue(ctx, entry)
}

func (rp *ResilientPublisher) drain(ctx context.Context) {
	drained := 0
	for {
		select {
		case entry := <-rp.retryQueue:
			rp.attempt(ctx, entry, false)
			drained++
		default:
			if drained > 0 {
				logger.FromContext(ctx).Info(LogMsgQueueDrainedShutdown, "count", drained)
			}
			return
		}
	}
}

func (rp *ResilientPublisher) writeDeadLetter(ctx context.Context, entry retryEntry) {
	if rp.deadLetter == nil {
		return
	}
	if err := rp.deadLetter.Write(ctx, entry.event, entry.attempt, entry.lastErr); err != nil {
		logger.FromContext(ctx).Error(LogMsgDeadLetterWriteFailed, "event_type", entry.event.Type, "error", err)
	}
}

// Shutdown stops the retry worker after one final attempt for every queued event
func (rp *ResilientPublisher) Shutdown(ctx context.Context) error {
	rp.shutdownOnce.Do(func() { close(rp.shutdown) })

	done := make(chan struct{})
	go func() {
		rp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.FromContext(ctx).Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}

	if rp.deadLetter != nil {
		return rp.deadLetter.Close()
	}
	return nil
}
