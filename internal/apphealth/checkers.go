package apphealth

import (
	"context"
	"fmt"
	"time"
)

// iterationTracker is satisfied by factengine.Worker: it reports the time of
// its most recent dequeue-loop iteration.
type iterationTracker interface {
	LastIteration() time.Time
}

// parkedTracker is optionally satisfied by an iterationTracker that can also
// report whether it is currently blocked in its dequeue call — the common,
// healthy idle state on an empty queue — as opposed to having stopped
// running altogether.
type parkedTracker interface {
	Parked() bool
}

// WorkerChecker builds a Checker that fails readiness once worker's dequeue
// loop has gone silent for longer than maxStaleness. A worker parked on an
// empty queue is healthy and idle, not stalled, so a tracker that reports
// Parked() true is never treated as stale; staleness here means "stopped
// running", not "idle".
func WorkerChecker(name string, worker iterationTracker, maxStaleness time.Duration) Checker {
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			if p, ok := worker.(parkedTracker); ok && p.Parked() {
				return nil
			}
			last := worker.LastIteration()
			if last.IsZero() {
				return fmt.Errorf("fact worker has not started")
			}
			if age := time.Since(last); age > maxStaleness {
				return fmt.Errorf("fact worker stalled: last iteration %s ago", age.Round(time.Second))
			}
			return nil
		},
	}
}
