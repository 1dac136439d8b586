package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeLoopImmediateFIFO(t *testing.T) {
	l := NewFakeLoop()
	var order []int
	l.ScheduleImmediate(func() { order = append(order, 1) })
	l.ScheduleImmediate(func() { order = append(order, 2) })

	assert.True(t, l.RunImmediate())
	assert.True(t, l.RunImmediate())
	assert.False(t, l.RunImmediate())
	assert.Equal(t, []int{1, 2}, order)
}

func TestFakeLoopCancelSkipsImmediate(t *testing.T) {
	l := NewFakeLoop()
	ran := false
	cb := l.ScheduleImmediate(func() { ran = true })
	cb.Cancel()
	assert.False(t, l.RunImmediate())
	assert.False(t, ran)
}

func TestFakeLoopTimerOrdering(t *testing.T) {
	l := NewFakeLoop()
	var order []string
	l.ScheduleTimer(func() { order = append(order, "late") }, 10*time.Millisecond)
	l.ScheduleTimer(func() { order = append(order, "early") }, 2*time.Millisecond)

	l.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"early"}, order)

	l.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"early", "late"}, order)
}

func TestFakeLoopIdleSeparateFromImmediate(t *testing.T) {
	l := NewFakeLoop()
	ranIdle, ranImmediate := false, false
	l.ScheduleIdle(func() { ranIdle = true })
	l.ScheduleImmediate(func() { ranImmediate = true })

	assert.True(t, l.RunImmediate())
	assert.False(t, ranIdle)
	assert.True(t, l.RunIdle())
	assert.True(t, ranIdle)
	assert.True(t, ranImmediate)
}

func TestFakeLoopPendingCounts(t *testing.T) {
	l := NewFakeLoop()
	l.ScheduleImmediate(func() {})
	l.ScheduleIdle(func() {})
	l.ScheduleTimer(func() {}, time.Millisecond)

	assert.Equal(t, 1, l.PendingImmediate())
	assert.Equal(t, 1, l.PendingIdle())
	assert.Equal(t, 1, l.PendingTimers())
}
