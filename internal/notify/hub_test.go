package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/companion/internal/model"
	"campus/companion/internal/timer"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe("a")
	defer cancelA()
	b, cancelB := hub.Subscribe("b")
	defer cancelB()

	hub.Publish(model.ModeEvent{UserID: "a", PreviousMode: timer.ModeFocus, NewMode: timer.ModeShortBreak})

	select {
	case event := <-a:
		assert.Equal(t, timer.ModeShortBreak, event.NewMode)
	default:
		t.Fatal("expected event for user a")
	}
	select {
	case <-b:
		t.Fatal("user b should not receive user a events")
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("a")
	defer cancel()

	dropped := 0
	for i := 0; i < subscriberBuffer+3; i++ {
		dropped += hub.Publish(model.ModeEvent{UserID: "a"})
	}
	assert.Equal(t, 3, dropped)
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("a")
	require.Equal(t, 1, hub.Subscribers("a"))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers("a"))
	assert.Zero(t, hub.Publish(model.ModeEvent{UserID: "a"}))
}
