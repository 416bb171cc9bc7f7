package broadcast

import (
	"fmt"
	"testing"

	"tabletap/internal/core"
	"tabletap/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(logger.NewLogger("test"))
}

func TestHubFanOut(t *testing.T) {
	hub := testHub()
	first := hub.Subscribe("tenant-1")
	second := hub.Subscribe("tenant-1")

	hub.Publish(Event{Type: EventOrderNew, TenantID: "tenant-1", OrderNumber: "ORD_1"})

	// Broadcast, not load-balanced: each subscriber gets its own copy.
	for _, sub := range []*Subscription{first, second} {
		event := <-sub.C
		assert.Equal(t, EventOrderNew, event.Type)
		assert.Equal(t, "ORD_1", event.OrderNumber)
	}
}

func TestHubTenantIsolation(t *testing.T) {
	hub := testHub()
	mine := hub.Subscribe("tenant-1")
	other := hub.Subscribe("tenant-2")

	hub.Publish(Event{Type: EventOrderNew, TenantID: "tenant-1"})

	<-mine.C
	select {
	case event := <-other.C:
		t.Fatalf("tenant-2 received tenant-1 event %v", event)
	default:
	}
}

func TestHubDeliveryOrder(t *testing.T) {
	hub := testHub()
	sub := hub.Subscribe("tenant-1")

	for i := 0; i < 10; i++ {
		hub.Publish(Event{Type: EventOrderUpdated, TenantID: "tenant-1", OrderNumber: fmt.Sprintf("ORD_%d", i)})
	}
	for i := 0; i < 10; i++ {
		event := <-sub.C
		assert.Equal(t, fmt.Sprintf("ORD_%d", i), event.OrderNumber)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	sub := hub.Subscribe("tenant-1")

	// Nobody drains, so everything past the buffer is dropped rather
	// than blocking the publisher.
	for i := 0; i < core.SubscriberBuffer+10; i++ {
		hub.Publish(Event{Type: EventOrderUpdated, TenantID: "tenant-1"})
	}

	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, core.SubscriberBuffer, received)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := testHub()
	sub := hub.Subscribe("tenant-1")
	sub.Unsubscribe()

	// Channel closes and later publishes find no subscriber.
	_, open := <-sub.C
	require.False(t, open)
	hub.Publish(Event{Type: EventOrderNew, TenantID: "tenant-1"})
}

func TestHubCloseTerminatesSubscribers(t *testing.T) {
	hub := testHub()
	sub := hub.Subscribe("tenant-1")
	hub.Close()

	_, open := <-sub.C
	assert.False(t, open)

	late := hub.Subscribe("tenant-1")
	_, open = <-late.C
	assert.False(t, open)
}
