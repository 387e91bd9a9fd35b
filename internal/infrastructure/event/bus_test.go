package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var eventT0 = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), "tester", eventT0),
		Data:            "test data",
	}
}

// recordingHandler remembers what it handled
type recordingHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		subscribe func(*InMemoryEventBus) *recordingHandler
		events    []string
		want      int
	}{
		{
			name: "explicit type",
			subscribe: func(b *InMemoryEventBus) *recordingHandler {
				h := newRecordingHandler()
				b.Subscribe(h, "OrderCreated")
				return h
			},
			events: []string{"OrderCreated", "PaymentRefunded"},
			want:   1,
		},
		{
			name: "handler's own types",
			subscribe: func(b *InMemoryEventBus) *recordingHandler {
				h := newRecordingHandler("PaymentRefunded", "ShipmentDelivered")
				b.Subscribe(h)
				return h
			},
			events: []string{"OrderCreated", "PaymentRefunded", "ShipmentDelivered"},
			want:   2,
		},
		{
			name: "wildcard",
			subscribe: func(b *InMemoryEventBus) *recordingHandler {
				h := newRecordingHandler()
				b.Subscribe(h)
				return h
			},
			events: []string{"OrderCreated", "PaymentRefunded", "ShipmentDelivered"},
			want:   3,
		},
		{
			name: "no match",
			subscribe: func(b *InMemoryEventBus) *recordingHandler {
				h := newRecordingHandler()
				b.Subscribe(h, "ShipmentCreated")
				return h
			},
			events: []string{"OrderCreated"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			h := tt.subscribe(bus)

			events := make([]shared.DomainEvent, 0, len(tt.events))
			for _, et := range tt.events {
				events = append(events, newTestEvent(et))
			}
			require.NoError(t, bus.Publish(ctx, events...))
			assert.Len(t, h.Handled(), tt.want)
		})
	}
}

func TestInMemoryEventBus_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newRecordingHandler()
	failing.err = errors.New("boom")
	panicking := newRecordingHandler()
	panicking.panicWith = "kaboom"
	healthy := newRecordingHandler()

	bus.Subscribe(failing, "OrderCreated")
	bus.Subscribe(panicking, "OrderCreated")
	bus.Subscribe(healthy, "OrderCreated")

	err := bus.Publish(context.Background(), newTestEvent("OrderCreated"))
	require.NoError(t, err)
	assert.Len(t, failing.Handled(), 1)
	assert.Len(t, healthy.Handled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler()
	bus.Subscribe(h, "OrderCreated")
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderCreated")))
	assert.Empty(t, h.Handled())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	h := newRecordingHandler()
	bus.Subscribe(h)

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("OrderCreated")))
	assert.Empty(t, h.Handled(), "stopped bus drops events")

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("OrderCreated")))
	assert.Len(t, h.Handled(), 1)
}

type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func (h *blockingHandler) Handle(context.Context, shared.DomainEvent) error {
	close(h.started)
	<-h.release
	return nil
}

func (h *blockingHandler) EventTypes() []string { return nil }

func TestInMemoryEventBus_StopWaitsForInflight(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	bus.Subscribe(h)

	go func() { _ = bus.Publish(context.Background(), newTestEvent("OrderCreated")) }()
	<-h.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Stop(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(h.release)
	require.NoError(t, bus.Stop(context.Background()))
}
