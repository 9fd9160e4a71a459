package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventTicketEscalated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketEscalated}))
	require.NoError(t, d.Publish(context.Background(), Event{ID: "e2", Type: EventSLABreached}))

	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestDispatcherHandlerFailureDoesNotBlockOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	second := false
	d.Subscribe(EventSLABreached, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventSLABreached, func(_ context.Context, _ Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSLABreached}))
	assert.True(t, second)
}
