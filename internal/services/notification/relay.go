package notification

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/models"
)

// Sink delivers events to an external system
type Sink interface {
	Send(ctx context.Context, evt models.Event) error
	Close() error
}

// Relay forwards events to a Sink from a single worker goroutine.
// Publish only enqueues, so a slow or unreachable sink never stalls the caller;
// when the queue is full the event is dropped.
type Relay struct {
	name    string
	sink    Sink
	queue   chan models.Event
	dropped atomic.Uint64
	failed  atomic.Uint64
	logger  *zap.Logger
}

// NewRelay creates a relay with a bounded queue
func NewRelay(name string, sink Sink, buffer int, logger *zap.Logger) *Relay {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		name:   name,
		sink:   sink,
		queue:  make(chan models.Event, buffer),
		logger: logger.With(zap.String("relay", name)),
	}
}

// Name identifies the relay in logs and metrics
func (r *Relay) Name() string {
	return r.name
}

// Publish enqueues evt for delivery
func (r *Relay) Publish(evt models.Event) {
	select {
	case r.queue <- evt:
	default:
		r.dropped.Add(1)
		r.logger.Warn("Relay queue full, dropping event", zap.String("event", string(evt.Kind)))
	}
}

// Run delivers queued events in order until ctx is cancelled, then closes the sink
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("Relay started")
	defer func() {
		if err := r.sink.Close(); err != nil {
			r.logger.Error("Failed to close relay sink", zap.Error(err))
		}
		r.logger.Info("Relay stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-r.queue:
			if err := r.sink.Send(ctx, evt); err != nil {
				r.failed.Add(1)
				r.logger.Error("Failed to relay event",
					zap.String("event", string(evt.Kind)),
					zap.Error(err),
				)
			}
		}
	}
}

// Dropped returns how many events were discarded because the queue was full
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}

// Failed returns how many events the sink rejected
func (r *Relay) Failed() uint64 {
	return r.failed.Load()
}
