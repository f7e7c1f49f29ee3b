package pair

import (
	"sync"

	"github.com/racewindow/fuzzysync/internal/fzsync/affinity"
)

// launcher spawns B's goroutine, locks it to an OS thread and pins it when
// requested, and joins on cleanup. Lock to an OS thread first, bind
// affinity second, defer the unlock; no separate shutdown channel is
// needed because B's own run condition (RunB) already provides the
// shutdown check.
type launcher struct {
	wg      sync.WaitGroup
	running bool
}

// start spawns fn on its own goroutine. If pin is true, fn runs locked to
// the OS thread bound to cpu; a pinning failure is non-fatal (pinning is a
// stabilization aid only) and fn still runs unpinned.
func (l *launcher) start(cpu int, pin bool, fn func()) {
	l.running = true
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if pin {
			// Pin locks the OS thread before attempting the affinity
			// syscall, so the unlock must happen unconditionally on exit
			// even if the syscall itself failed -- otherwise this
			// goroutine's OS thread stays locked (and is torn down
			// rather than returned to the scheduler's pool) for no
			// reason once fn returns.
			affinity.Pin(cpu)
			defer affinity.Unpin()
		}
		fn()
	}()
}

// join waits for a previously started fn to return. join is a no-op if
// start was never called or the worker has already been joined.
func (l *launcher) join() {
	if !l.running {
		return
	}
	l.wg.Wait()
	l.running = false
}
