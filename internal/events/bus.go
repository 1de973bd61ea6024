package events

import (
	"log/slog"
	"sync"
)

// Bus is a small pub/sub fan-out for run events. Publishing never blocks:
// a subscriber that falls behind loses events rather than stalling the
// download pipeline.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Publish sends an event to all subscribers (non-blocking). The sends
// happen under the read lock so Close can never close a channel mid-send.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event", "type", e.EventType())
		}
	}
}

// Subscribe returns a channel receiving all published events.
func (b *Bus) Subscribe(bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.subs = append(b.subs, ch)
	return ch
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
