package sched

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postq/internal/priority"
	"postq/internal/signal"
)

func TestYieldWithoutSignalResolves(t *testing.T) {
	s, loop := newTestScheduler()
	fut := s.Yield(YieldOptions{})
	drain(loop)
	_, err := fut.Await(context.Background())
	assert.NoError(t, err)
}

// TestYieldPriorityBoostMap verifies the boost table: user-visible boosts
// to user-blocking, user-blocking and background stay put.
func TestYieldPriorityBoostMap(t *testing.T) {
	assert.Equal(t, priority.UserBlocking, yieldPriorityMap(priority.UserBlocking))
	assert.Equal(t, priority.UserBlocking, yieldPriorityMap(priority.UserVisible))
	assert.Equal(t, priority.Background, yieldPriorityMap(priority.Background))
}

// TestYieldInheritDegradesToDefault covers the Open Question this module
// resolves by degrading Inherit to priority.Default, since there is no
// ambient calling-context priority to observe.
func TestYieldInheritDegradesToDefault(t *testing.T) {
	s, loop := newTestScheduler()

	pBlocking := priority.UserBlocking
	s.PostTask(func(context.Context) (any, error) { return nil, nil }, Options{Priority: &pBlocking})
	assert.Equal(t, 1, loop.PendingImmediate())

	// An inherited-priority yield should boost priority.Default
	// (user-visible) to user-blocking, landing in the same queue as the
	// already-pending user-blocking task rather than idle.
	s.Yield(YieldOptions{Priority: Inherit})
	assert.Equal(t, 1, loop.PendingImmediate())
	assert.Equal(t, 0, loop.PendingIdle())
}

func TestYieldAbortedSignalRejectsImmediately(t *testing.T) {
	s, _ := newTestScheduler()
	ctrl := signal.NewTaskControllerDefault()
	ctrl.Abort(errors.New("stop"))

	fut := s.Yield(YieldOptions{Signal: ctrl.Signal()})
	_, err := fut.Await(context.Background())
	assert.Error(t, err)
}

func TestYieldSignalAbortDuringWaitRejects(t *testing.T) {
	s, loop := newTestScheduler()
	ctrl := signal.NewTaskControllerDefault()

	fut := s.Yield(YieldOptions{Signal: ctrl.Signal()})
	ctrl.Abort(errors.New("stop"))
	drain(loop)

	_, err := fut.Await(context.Background())
	assert.Error(t, err)
}

// TestYieldDynamicPriorityFollowsSignal covers the "priority change migrates
// the continuation" behavior: when Yield is given a PrioritySignal and no
// pinned priority, a later prioritychange on that signal must re-map the
// continuation's effective priority via the scheduler's own merge machinery.
func TestYieldDynamicPriorityFollowsSignal(t *testing.T) {
	s, loop := newTestScheduler()
	pBackground := priority.Background
	ctrl, err := signal.NewTaskController(signal.ControllerOptions{Priority: &pBackground})
	require.NoError(t, err)

	fut := s.Yield(YieldOptions{Priority: Inherit, Signal: ctrl.Signal()})
	assert.Equal(t, 1, loop.PendingIdle())
	assert.Equal(t, 0, loop.PendingImmediate())

	require.NoError(t, ctrl.SetPriority(priority.UserBlocking))
	assert.Equal(t, 0, loop.PendingIdle())
	assert.Equal(t, 1, loop.PendingImmediate())

	drain(loop)
	_, err = fut.Await(context.Background())
	assert.NoError(t, err)
}

func TestYieldPinnedPriorityIgnoresSignalPriority(t *testing.T) {
	s, loop := newTestScheduler()
	pBackground := priority.Background
	ctrl, err := signal.NewTaskController(signal.ControllerOptions{Priority: &pBackground})
	require.NoError(t, err)

	pBlocking := priority.UserBlocking
	fut := s.Yield(YieldOptions{Priority: &pBlocking, Signal: ctrl.Signal()})
	assert.Equal(t, 1, loop.PendingImmediate())

	// A later prioritychange must not migrate a pinned yield.
	require.NoError(t, ctrl.SetPriority(priority.UserVisible))
	assert.Equal(t, 1, loop.PendingImmediate())

	drain(loop)
	_, err = fut.Await(context.Background())
	assert.NoError(t, err)
}

