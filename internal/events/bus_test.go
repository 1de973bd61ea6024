package events

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(testLogger())
	ch := bus.Subscribe(4)

	bus.Publish(NewProgress(1, 10, 2048, 0))

	e := <-ch
	p, ok := e.(Progress)
	require.True(t, ok)
	assert.Equal(t, "progress", p.EventType())
	assert.Equal(t, 1, p.PostsDone)
	assert.Equal(t, 10, p.PostsTotal)
	assert.Equal(t, int64(2048), p.BytesWritten)
	assert.False(t, p.OccurredAt().IsZero())
}

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(testLogger())
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)

	bus.Publish(NewBaseEvent("ping"))

	assert.Equal(t, "ping", (<-a).EventType())
	assert.Equal(t, "ping", (<-b).EventType())
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(testLogger())
	ch := bus.Subscribe(1)

	bus.Publish(NewBaseEvent("first"))
	bus.Publish(NewBaseEvent("dropped")) // buffer full; must not block

	assert.Equal(t, "first", (<-ch).EventType())
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %q", e.EventType())
	default:
	}
}

func TestBus_ConcurrentPublishAndClose(t *testing.T) {
	bus := NewBus(testLogger())
	bus.Subscribe(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			bus.Publish(NewBaseEvent("tick")) // must not panic against a concurrent Close
		}
	}()
	bus.Close()
	wg.Wait()
}

func TestBus_Close(t *testing.T) {
	bus := NewBus(testLogger())
	ch := bus.Subscribe(1)

	bus.Close()
	_, open := <-ch
	assert.False(t, open, "subscriber channels close with the bus")

	bus.Publish(NewBaseEvent("after-close")) // must not panic
	bus.Close()                              // idempotent
}
