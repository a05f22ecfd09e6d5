// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/uniform-watch/internal/logger"
)

// ticker is the clock seam; tests drive it by hand.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func newTimeTicker(d time.Duration) ticker { return timeTicker{t: time.NewTicker(d)} }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// run is the ticker loop. One goroutine per poller. No overlap. No retries.
func (p *Poller) run(ctx context.Context, t ticker, gen uint64, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			p.tick(ctx, gen)
		}
	}
}

// tick starts a request unless one is still pending, in which case the tick is dropped.
func (p *Poller) tick(ctx context.Context, gen uint64) {
	p.mu.Lock()
	if p.stopped || p.gen != gen {
		p.mu.Unlock()
		return
	}
	if p.inFlight {
		p.skipped++
		p.mu.Unlock()

		if p.obs != nil {
			p.obs.ObserveSkippedTick()
		}
		logger.Debug(logModule, "tick skipped: previous request pending")
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	p.requests.Add(1)
	go func() {
		defer p.requests.Done()
		p.poll(ctx, gen)
	}()
}
