package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

// EventSink receives committed events in journal order.
type EventSink interface {
	Emit(ctx context.Context, events []event.Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, events []event.Event) error

// Emit implements EventSink.
func (fn SinkFunc) Emit(ctx context.Context, events []event.Event) error {
	return fn(ctx, events)
}

// LogSink writes each committed event to a zap logger.
type LogSink struct {
	Logger *zap.Logger
}

// Emit implements EventSink.
func (s LogSink) Emit(_ context.Context, events []event.Event) error {
	if s.Logger == nil {
		return nil
	}
	for _, evt := range events {
		s.Logger.Info("event committed",
			zap.Uint64("seq", evt.Seq),
			zap.String("type", string(evt.Type)),
			zap.String("actor_id", evt.ActorID),
			zap.String("entity", evt.EntityType+"/"+evt.EntityID),
			zap.ByteString("payload", evt.PayloadJSON),
		)
	}
	return nil
}

// MultiSink fans events out to every sink in order and returns the first
// error after all sinks have run.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(ctx context.Context, events []event.Event) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ctx, events); err != nil && first == nil {
			first = err
		}
	}
	return first
}
