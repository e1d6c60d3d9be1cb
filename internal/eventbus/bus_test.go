package eventbus_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/eventbus"
	"github.com/shaharia-lab/alertmail/internal/metrics"
)

func TestPublishAndReceive(t *testing.T) {
	bus := eventbus.New(2, nil)
	defer bus.Close()

	var received []eventbus.Event
	var mu sync.Mutex

	bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	bus.Publish("notification.sent", map[string]string{"alert": "disk"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "notification.sent", received[0].Type)
	assert.Equal(t, "disk", received[0].Payload["alert"])
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestMultipleListeners(t *testing.T) {
	bus := eventbus.New(2, nil)

	var count int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ eventbus.Event) {
			atomic.AddInt32(&count, 1)
		})
	}

	bus.Publish("multi", nil)
	bus.Close()

	assert.EqualValues(t, 3, atomic.LoadInt32(&count))
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := eventbus.New(1, nil)

	var goodCalled int32
	bus.Subscribe(func(_ eventbus.Event) {
		panic("intentional panic in listener")
	})
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&goodCalled, 1)
	})

	bus.Publish("panic.event", nil)
	bus.Close()

	// The second listener should still have been called.
	assert.EqualValues(t, 1, atomic.LoadInt32(&goodCalled))
}

func TestClose(t *testing.T) {
	bus := eventbus.New(2, nil)

	var count int32
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&count, 1)
	})

	for i := 0; i < 5; i++ {
		bus.Publish("evt", nil)
	}

	// Close waits for all workers to finish processing.
	bus.Close()
	assert.EqualValues(t, 5, atomic.LoadInt32(&count))

	// Publishing after Close is dropped rather than panicking, and a second
	// Close is a no-op.
	assert.NotPanics(t, func() {
		bus.Publish("late", nil)
		bus.Close()
	})
	assert.EqualValues(t, 5, atomic.LoadInt32(&count))
}

func TestListen_FiltersTypes(t *testing.T) {
	bus := eventbus.New(1, nil)

	var got []string
	var mu sync.Mutex
	bus.Subscribe(eventbus.Listen(func(e eventbus.Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	}, "notification.sent", "notification.failed"))

	bus.Publish("notification.sent", nil)
	bus.Publish("mail_config.updated", nil)
	bus.Publish("notification.failed", nil)
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"notification.sent", "notification.failed"}, got)
}

func TestDefaultWorkers(t *testing.T) {
	// workers <= 0 should use default without panicking.
	bus := eventbus.New(0, nil)
	require.NotNil(t, bus)
	bus.Close()
}

func TestPublishAfterCloseCountsDrop(t *testing.T) {
	dropped := metrics.EventsDropped.WithLabelValues(metrics.DropClosed)
	before := testutil.ToFloat64(dropped)

	bus := eventbus.New(1, nil)
	bus.Close()
	bus.Publish("notification.sent", map[string]string{"dispatch_id": "d-1"})

	assert.InDelta(t, before+1, testutil.ToFloat64(dropped), 0.001)
}
