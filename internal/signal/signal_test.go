package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortIdempotent(t *testing.T) {
	c := NewController()
	calls := 0
	c.Signal().OnAbort(func() { calls++ })

	reason := errors.New("stop")
	c.Abort(reason)
	c.Abort(errors.New("second reason ignored"))

	assert.True(t, c.Signal().Aborted())
	assert.Equal(t, reason, c.Signal().Reason())
	assert.Equal(t, 1, calls)
}

func TestAbortDefaultReason(t *testing.T) {
	c := NewController()
	c.Abort(nil)
	assert.Equal(t, ErrAborted, c.Signal().Reason())
}

func TestOnAbortAfterAbortFiresImmediately(t *testing.T) {
	c := NewController()
	c.Abort(errors.New("x"))

	fired := false
	detach := c.Signal().OnAbort(func() { fired = true })
	assert.True(t, fired)
	detach() // no-op, must not panic
}

func TestOnAbortDetach(t *testing.T) {
	c := NewController()
	calls := 0
	detach := c.Signal().OnAbort(func() { calls++ })
	detach()
	c.Abort(nil)
	assert.Equal(t, 0, calls)
}

func TestAbortFromWithinListener(t *testing.T) {
	c := NewController()
	c.Signal().OnAbort(func() {
		c.Abort(errors.New("re-entrant, ignored"))
	})
	c.Abort(errors.New("first"))
	assert.Equal(t, "first", c.Signal().Reason().Error())
}

func TestNotAbortedByDefault(t *testing.T) {
	c := NewController()
	require.False(t, c.Signal().Aborted())
	require.NoError(t, c.Signal().Reason())
}
