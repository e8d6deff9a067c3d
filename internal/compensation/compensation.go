// Package compensation undoes the committed steps of a multi-document
// operation when a later step fails, and reports undo steps that could not
// be applied as consistency violations.
package compensation

import (
	"context"
	"errors"
	"time"

	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
)

// LogMsgInconsistency marks log lines that need external reconciliation
const LogMsgInconsistency = "Compensation failed, data is inconsistent"

type step struct {
	name string
	undo func(ctx context.Context) error
}

// Plan records undo actions for committed steps in commit order
type Plan struct {
	operation string
	entities  map[string]string
	bus       event.Bus
	steps     []step
}

// New starts a plan for operation. entities names the documents involved
// (e.g. "listing_id" -> id) and is attached to any violation report.
func New(operation string, entities map[string]string, bus event.Bus) *Plan {
	return &Plan{operation: operation, entities: entities, bus: bus}
}

// Committed registers the undo action for a step that has just committed
func (p *Plan) Committed(name string, undo func(ctx context.Context) error) {
	p.steps = append(p.steps, step{name: name, undo: undo})
}

// Rollback runs the undo actions in reverse commit order. It keeps going
// after a failed undo and returns the joined undo errors, if any. The
// caller's cancellation does not stop the rollback.
func (p *Plan) Rollback(ctx context.Context, cause error) error {
	if len(p.steps) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	metrics.Compensations.WithLabelValues(p.operation).Inc()

	var errs []error
	for i := len(p.steps) - 1; i >= 0; i-- {
		s := p.steps[i]
		if err := s.undo(ctx); err != nil {
			p.Report(ctx, s.name, cause, err)
			errs = append(errs, err)
		}
	}
	p.steps = nil
	return errors.Join(errs...)
}

// Report records a step that could not be undone or completed: an error log
// tagged inconsistency=true, a metric and a consistency.violation event.
func (p *Plan) Report(ctx context.Context, stepName string, cause, err error) {
	causeText := ""
	if cause != nil {
		causeText = cause.Error()
	}
	logger.FromContext(ctx).Error(LogMsgInconsistency,
		"inconsistency", true,
		"operation", p.operation,
		"step", stepName,
		"entities", p.entities,
		"cause", causeText,
		"error", err,
	)
	metrics.Inconsistencies.WithLabelValues(p.operation).Inc()

	if p.bus == nil {
		return
	}
	evt := event.NewConsistencyViolationEvent(event.ConsistencyViolationPayloadV1{
		Operation: p.operation,
		Step:      stepName,
		Entities:  p.entities,
		Cause:     causeText,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
	if pubErr := p.bus.Publish(ctx, evt); pubErr != nil {
		logger.FromContext(ctx).Warn("Failed to publish consistency violation", "error", pubErr)
	}
}
