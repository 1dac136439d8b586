package sched

import (
	"sync"

	"postq/internal/host"
)

// globalSch is the process-wide scheduler populated by Install, playing
// the role of installing `scheduler` on the host global object when
// absent. Go has no ambient global namespace to probe, so "absent" here
// means "Install has not yet been called".
var (
	globalMu  sync.Mutex
	globalSch *Scheduler
)

// Install populates the process-global Scheduler if one hasn't already
// been installed, and returns it either way. A second call with different
// arguments is a no-op that simply returns the scheduler installed first,
// mirroring "if the host's global already exposes a scheduler, do
// nothing".
func Install(loop host.Loop, cfg Config) *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSch == nil {
		globalSch = New(loop, cfg)
	}
	return globalSch
}

// Global returns the process-global Scheduler installed by Install, or nil
// if Install has never been called.
func Global() *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalSch
}
