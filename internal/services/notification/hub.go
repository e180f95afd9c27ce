package notification

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/models"
)

// DefaultObserverBuffer is used when NewHub is given a non-positive buffer
const DefaultObserverBuffer = 256

// Hub fans events out to every connected observer.
// Each observer gets its own buffered channel; a full channel drops the event.
type Hub struct {
	observers map[uuid.UUID]chan models.Event
	mu        sync.RWMutex
	buffer    int
	dropped   atomic.Uint64
	logger    *zap.Logger
}

// NewHub creates an observer hub
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultObserverBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		observers: make(map[uuid.UUID]chan models.Event),
		buffer:    buffer,
		logger:    logger,
	}
}

// Subscribe registers a new observer. The returned cleanup function
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (uuid.UUID, <-chan models.Event, func()) {
	id := uuid.New()
	ch := make(chan models.Event, h.buffer)

	h.mu.Lock()
	h.observers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.observers, id)
			close(ch)
		})
	}

	return id, ch, cleanup
}

// Publish delivers evt to every observer without waiting on any of them
func (h *Hub) Publish(evt models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.observers {
		select {
		case ch <- evt:
		default:
			h.dropped.Add(1)
			h.logger.Debug("Observer buffer full, dropping event",
				zap.String("observer_id", id.String()),
				zap.String("event", string(evt.Kind)),
			)
		}
	}
}

// Count returns the number of connected observers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.observers)
}

// Dropped returns how many deliveries were skipped because an observer was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
