package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
)

func TestBusFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(4)
	first := bus.Subscribe(ctx)
	second := bus.Subscribe(ctx)

	e := events.New(events.RoundStarted, 1, map[string]any{"participants": 2})
	bus.Publish(e)

	for _, ch := range []<-chan events.Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, e, got)
		case <-time.After(time.Second):
			t.Fatal("event was not delivered")
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(1)
	ch := bus.Subscribe(ctx)

	bus.Publish(events.New(events.RoundStarted, 1, nil))
	bus.Publish(events.New(events.RoundCompleted, 1, nil))

	assert.Equal(t, uint64(1), bus.Dropped())
	got := <-ch
	assert.Equal(t, events.RoundStarted, got.Kind)
}

func TestBusUnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus(0)
	ch := bus.Subscribe(ctx)
	require.Equal(t, 1, bus.Subscribers())

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.Eventually(t, func() bool { return bus.Subscribers() == 0 }, time.Second, 10*time.Millisecond)

	bus.Publish(events.New(events.RoundFailed, 2, nil))
}
