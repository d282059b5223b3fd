package event

import (
	"context"
	"errors"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     error
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.received = append(h.received, event)
	return h.fail
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func testEvent(eventType string) shared.DomainEvent {
	evt := shared.NewBaseDomainEvent(eventType, "test", uuid.New())
	return &evt
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"cascade.completed"}}

	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), testEvent("cascade.completed"))
	require.NoError(t, err)
	require.Len(t, handler.received, 1)
	assert.Equal(t, "cascade.completed", handler.received[0].EventType())
}

func TestInMemoryEventBus_IgnoresOtherEventTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"invoice.status_changed"}}

	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), testEvent("payment.recorded"))
	require.NoError(t, err)
	assert.Empty(t, handler.received)
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{}

	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		testEvent("payment.recorded"),
		testEvent("invoice.status_changed"),
	))
	assert.Len(t, handler.received, 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"cascade.completed"}, fail: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"cascade.completed"}}

	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), testEvent("cascade.completed"))
	require.NoError(t, err)
	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"cascade.completed"}}

	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent("cascade.completed")))
	assert.Empty(t, handler.received)
}
