package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealLoopImmediateRuns(t *testing.T) {
	l := NewLoop(LoopConfig{})
	done := make(chan struct{})
	l.ScheduleImmediate(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("immediate callback never ran")
	}
}

func TestRealLoopTimerCancel(t *testing.T) {
	l := NewLoop(LoopConfig{})
	ran := false
	cb := l.ScheduleTimer(func() { ran = true }, 20*time.Millisecond)
	cb.Cancel()

	time.Sleep(40 * time.Millisecond)
	assert.False(t, ran)
}

func TestRealLoopTimerFires(t *testing.T) {
	l := NewLoop(LoopConfig{})
	done := make(chan struct{})
	l.ScheduleTimer(func() { close(done) }, 5*time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
