// internal/writer/exporter.go
package writer

import (
	"context"
	"time"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/poller"
	"github.com/tamzrod/uniform-watch/internal/status"
)

const logModule = "export"

// Exporter owns the exported status snapshot.
// Poller states arrive through Notify; seconds_in_error advances on a 1 Hz ticker only.
type Exporter struct {
	sw      StatusWriter
	updates chan poller.State

	snap status.Snapshot
}

func NewExporter(sw StatusWriter) *Exporter {
	return &Exporter{
		sw:      sw,
		updates: make(chan poller.State, 1),
		snap:    status.Snapshot{Health: status.HealthUnknown},
	}
}

// Notify hands the latest poller state to the exporter without blocking.
// An undelivered older state is replaced.
func (e *Exporter) Notify(s poller.State) {
	for {
		select {
		case e.updates <- s:
			return
		default:
		}
		select {
		case <-e.updates:
		default:
		}
	}
}

// Run writes the boot block, then applies states and seconds ticks until ctx ends.
func (e *Exporter) Run(ctx context.Context) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert).
	e.write("start")

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-e.updates:
			if e.apply(s) {
				e.write("update")
			}
		case <-secTicker.C:
			if e.tickSecond() {
				e.write("seconds tick")
			}
		}
	}
}

// Snapshot returns the current exported snapshot. Not safe while Run is active.
func (e *Exporter) Snapshot() status.Snapshot { return e.snap }

// apply folds a poller state into the snapshot and reports whether it changed.
func (e *Exporter) apply(s poller.State) bool {
	next := e.snap

	switch s.Connectivity.Link {
	case detection.LinkConnected:
		next.Health = status.HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	case detection.LinkDisconnected:
		next.Health = status.HealthError
		next.LastErrorCode = s.Connectivity.Code
	default:
		next.Health = status.HealthUnknown
	}

	// Detection bits are last-known values and survive errors.
	next.Shirt = status.Bit(s.Status.ShirtDetected)
	next.Pants = status.Bit(s.Status.PantsDetected)
	next.Uniform = status.Bit(s.Status.UniformDetected)
	next.ConsecutiveFailures = status.Saturate(s.ConsecutiveFailures)

	changed := next != e.snap
	e.snap = next
	return changed
}

// tickSecond advances seconds_in_error while not OK. It never wraps.
func (e *Exporter) tickSecond() bool {
	if e.snap.Health == status.HealthOK || e.snap.SecondsInError >= status.MaxCounter {
		return false
	}
	e.snap.SecondsInError++
	return true
}

func (e *Exporter) write(what string) {
	if err := e.sw.WriteStatus(e.snap); err != nil {
		logger.Warn(logModule, "status write failed on %s: %v", what, err)
	}
}
