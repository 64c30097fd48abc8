package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agrisupport/internal/events"
)

func TestInMemoryDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("all subscribed handlers run", func(t *testing.T) {
		d := events.NewInMemoryDispatcher()
		var calls int
		d.Subscribe(events.EventIdentityActivated, func(context.Context, events.Event) error {
			calls++
			return nil
		})
		d.Subscribe(events.EventIdentityActivated, func(context.Context, events.Event) error {
			calls++
			return nil
		})

		require.NoError(t, d.Publish(ctx, events.Event{Type: events.EventIdentityActivated}))
		assert.Equal(t, 2, calls)
	})

	t.Run("a failing handler does not stop the rest", func(t *testing.T) {
		d := events.NewInMemoryDispatcher()
		var called bool
		d.Subscribe(events.EventPasswordReset, func(context.Context, events.Event) error {
			return errors.New("handler failed")
		})
		d.Subscribe(events.EventPasswordReset, func(context.Context, events.Event) error {
			called = true
			return nil
		})

		err := d.Publish(ctx, events.Event{Type: events.EventPasswordReset})
		assert.Error(t, err)
		assert.True(t, called)
	})

	t.Run("unsubscribed event types are a no-op", func(t *testing.T) {
		d := events.NewInMemoryDispatcher()
		assert.NoError(t, d.Publish(ctx, events.Event{Type: events.EventIdentityDeleted}))
	})
}
