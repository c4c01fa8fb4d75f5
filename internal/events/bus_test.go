package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(DataChanged, func(e Event) { got = append(got, e) })

	bus.Publish(Event{Type: DataChanged, Payload: map[string]interface{}{"source": "test"}})

	require.Len(t, got, 1)
	assert.Equal(t, DataChanged, got[0].Type)
	assert.Equal(t, "test", got[0].Payload["source"])
	assert.False(t, got[0].Timestamp.IsZero(), "publish stamps events missing a timestamp")
}

func TestPublishKeepsExplicitTimestamp(t *testing.T) {
	bus := NewBus()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var got Event
	bus.Subscribe(DataChanged, func(e Event) { got = e })
	bus.Publish(Event{Type: DataChanged, Timestamp: ts})

	assert.Equal(t, ts, got.Timestamp)
}

func TestPublishFiltersByType(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(ReflectionsGenerated, func(Event) { calls++ })

	bus.Publish(Event{Type: DataChanged})
	bus.Publish(Event{Type: ReflectionsDeduped})
	assert.Zero(t, calls)

	bus.Publish(Event{Type: ReflectionsGenerated})
	assert.Equal(t, 1, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsubscribe := bus.Subscribe(DataChanged, func(Event) { calls++ })
	require.Equal(t, 1, bus.SubscriberCount(DataChanged))

	bus.Publish(Event{Type: DataChanged})
	unsubscribe()
	bus.Publish(Event{Type: DataChanged})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.SubscriberCount(DataChanged))
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	bus := NewBus()

	a, b := 0, 0
	bus.Subscribe(DataChanged, func(Event) { a++ })
	bus.Subscribe(DataChanged, func(Event) { b++ })

	bus.Publish(Event{Type: DataChanged})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()

	var count int64
	var countMu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(DataChanged, func(Event) {
				countMu.Lock()
				count++
				countMu.Unlock()
			})
			defer unsub()
			bus.Publish(Event{Type: DataChanged})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(Event{Type: ReflectionsDeduped})
		}()
	}
	wg.Wait()

	countMu.Lock()
	defer countMu.Unlock()
	assert.GreaterOrEqual(t, count, int64(10), "each subscriber sees at least its own publish")
}
