package server

import "time"

// watchdog owns the single liveness alarm for a coordinator. There is at
// most one pending alarm; Arm replaces it. The alarm never carries a
// verdict: when it fires, checkDeadlines re-derives what (if anything) is
// actually overdue from current state, so an alarm armed for a phase that
// has since ended is harmless.
type watchdog struct {
	c        *Coordinator
	cancel   func()
	deadline time.Time
}

// Arm schedules (or reschedules) the alarm for at. Must run on the actor
// goroutine.
func (w *watchdog) Arm(at time.Time) {
	if w.cancel != nil {
		w.cancel()
	}
	w.deadline = at
	d := at.Sub(w.c.now())
	if d < 0 {
		d = 0
	}
	w.cancel = w.c.postAfter(d, w.c.checkDeadlines)
}
