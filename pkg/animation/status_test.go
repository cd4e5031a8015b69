package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid(StatusPending))
	assert.True(t, Valid(StatusRendering))
	assert.True(t, Valid(StatusCompleted))
	assert.True(t, Valid(StatusError))
	assert.False(t, Valid(Status("queued")))
	assert.False(t, Valid(Status("")))
}

func TestTerminal(t *testing.T) {
	assert.False(t, Terminal(StatusPending))
	assert.False(t, Terminal(StatusRendering))
	assert.True(t, Terminal(StatusCompleted))
	assert.True(t, Terminal(StatusError))
}

func TestCanTransition_Forward(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusRendering))
	assert.True(t, CanTransition(StatusRendering, StatusCompleted))
	assert.True(t, CanTransition(StatusRendering, StatusError))
}

func TestCanTransition_NeverBackwardOrSkipping(t *testing.T) {
	// No path skips rendering.
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusPending, StatusError))

	// Nothing moves backward.
	assert.False(t, CanTransition(StatusRendering, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusRendering))
	assert.False(t, CanTransition(StatusError, StatusPending))
	assert.False(t, CanTransition(StatusError, StatusRendering))

	// Terminal states admit nothing, including each other.
	assert.False(t, CanTransition(StatusCompleted, StatusError))
	assert.False(t, CanTransition(StatusError, StatusCompleted))

	// No self transitions.
	for _, s := range []Status{StatusPending, StatusRendering, StatusCompleted, StatusError} {
		assert.False(t, CanTransition(s, s))
	}
}
