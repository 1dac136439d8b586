package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postq/internal/priority"
)

func TestNewTaskControllerDefaultsAndValidates(t *testing.T) {
	c, err := NewTaskController(ControllerOptions{})
	require.NoError(t, err)
	assert.Equal(t, priority.Default, c.Signal().Priority())

	uv := priority.UserVisible
	c, err = NewTaskController(ControllerOptions{Priority: &uv})
	require.NoError(t, err)
	assert.Equal(t, priority.UserVisible, c.Signal().Priority())

	bad := priority.Priority(99)
	_, err = NewTaskController(ControllerOptions{Priority: &bad})
	assert.Error(t, err)
}

func TestSetPriorityDispatchesEventWithPrevious(t *testing.T) {
	c := NewTaskControllerDefault()
	var got PriorityChangeEvent
	fired := 0
	c.signal.onPriorityChangeEvent(func(ev PriorityChangeEvent) {
		got = ev
		fired++
	})

	require.NoError(t, c.SetPriority(priority.UserBlocking))
	assert.Equal(t, 1, fired)
	assert.Equal(t, priority.UserVisible, got.PreviousPriority)
	assert.Equal(t, priority.UserBlocking, c.Signal().Priority())
}

func TestSetPriorityNoOpEmitsNoEvent(t *testing.T) {
	c := NewTaskControllerDefault()
	fired := 0
	c.signal.onPriorityChangeEvent(func(PriorityChangeEvent) { fired++ })

	require.NoError(t, c.SetPriority(priority.UserVisible))
	assert.Equal(t, 0, fired)
}

func TestSetPriorityInvalid(t *testing.T) {
	c := NewTaskControllerDefault()
	err := c.SetPriority(priority.Priority(123))
	assert.Error(t, err)
}

func TestSetPriorityRecursionRejected(t *testing.T) {
	c := NewTaskControllerDefault()
	var recursiveErr error
	c.signal.onPriorityChangeEvent(func(PriorityChangeEvent) {
		recursiveErr = c.SetPriority(priority.Background)
	})

	require.NoError(t, c.SetPriority(priority.UserBlocking))
	assert.ErrorIs(t, recursiveErr, ErrPriorityChanging)
	// the outer call still completed and left priority updated.
	assert.Equal(t, priority.UserBlocking, c.Signal().Priority())
}

func TestSetPriorityNotChangingAfterRecursionRejected(t *testing.T) {
	c := NewTaskControllerDefault()
	c.signal.onPriorityChangeEvent(func(PriorityChangeEvent) {
		_ = c.SetPriority(priority.Background)
	})
	require.NoError(t, c.SetPriority(priority.UserBlocking))

	// a later, non-reentrant call must succeed normally.
	require.NoError(t, c.SetPriority(priority.Background))
	assert.Equal(t, priority.Background, c.Signal().Priority())
}

func TestTaskSignalIsAbortSignal(t *testing.T) {
	c := NewTaskControllerDefault()
	c.Abort(errors.New("done"))
	assert.True(t, c.Signal().Aborted())
}
