// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/logger"
)

const logModule = "poller"

var (
	ErrAlreadyStarted = errors.New("poller: already started")
	ErrStopped        = errors.New("poller: stopped")
	ErrInFlight       = errors.New("poller: request already in flight")
)

// Client abstracts the one remote call the poller needs.
type Client interface {
	FetchStatus(ctx context.Context) (detection.Status, error)
}

// Observer receives poll outcomes. Implementations must not block.
type Observer interface {
	ObservePoll(err error, elapsed time.Duration)
	ObserveSkippedTick()
	ObserveState(s State)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
	// Timeout bounds each request. Zero means Interval.
	Timeout time.Duration
}

// Poller is a cancellable periodic task owned by one view.
// At most one request is in flight; Stop is terminal.
type Poller struct {
	cfg    Config
	client Client
	obs    Observer

	newTicker func(time.Duration) ticker
	now       func() time.Time

	// notifyMu serializes apply+notify against Stop so no subscriber runs after Stop returns.
	notifyMu sync.Mutex

	mu       sync.Mutex
	state    State
	started  bool
	stopped  bool
	gen      uint64
	inFlight bool
	skipped  uint64
	cancel   context.CancelFunc
	done     chan struct{}
	subs     map[int]func(State)
	nextSub  int

	requests sync.WaitGroup
}

type Option func(*Poller)

// WithObserver attaches a metrics sink.
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.obs = o }
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, opts ...Option) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Timeout <= 0 || cfg.Timeout > cfg.Interval {
		cfg.Timeout = cfg.Interval
	}

	p := &Poller{
		cfg:       cfg,
		client:    client,
		newTicker: newTimeTicker,
		now:       time.Now,
		state:     initialState(),
		subs:      make(map[int]func(State)),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Interval returns the configured cadence.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SkippedTicks counts ticks dropped because a request was still pending.
func (p *Poller) SkippedTicks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}

// Subscribe registers fn for every applied state change.
// fn runs on the poller's goroutine and must not call Stop.
func (p *Poller) Subscribe(fn func(State)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Start begins polling at the configured interval.
// The first request is issued on the first tick, not immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	t := p.newTicker(p.cfg.Interval)
	go p.run(runCtx, t, p.gen, p.done)

	logger.Debug(logModule, "started interval=%s timeout=%s", p.cfg.Interval, p.cfg.Timeout)
	return nil
}

// Stop cancels the ticker and any in-flight request.
// A response that arrives after Stop is discarded. Safe to call more than once.
func (p *Poller) Stop() {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.gen++
	p.subs = make(map[int]func(State))
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	logger.Debug(logModule, "stopped")
}

// Wait blocks until every request goroutine has returned.
// Call after Stop when the client's resources are about to be released.
func (p *Poller) Wait() {
	p.requests.Wait()
}

// PollOnce performs exactly one fetch-and-apply cycle on the caller's goroutine.
func (p *Poller) PollOnce(ctx context.Context) (State, error) {
	gen, err := p.begin()
	if err != nil {
		return p.Snapshot(), err
	}
	p.requests.Add(1)
	defer p.requests.Done()

	p.poll(ctx, gen)
	return p.Snapshot(), nil
}

// begin claims the single in-flight slot.
func (p *Poller) begin() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return 0, ErrStopped
	}
	if p.inFlight {
		return 0, ErrInFlight
	}
	p.inFlight = true
	return p.gen, nil
}

func (p *Poller) poll(ctx context.Context, gen uint64) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	start := p.now()
	s, err := p.client.FetchStatus(reqCtx)
	cancel()
	elapsed := p.now().Sub(start)

	p.apply(ctx, gen, s, err, elapsed)
}

// apply commits one settled request.
// Success replaces Status wholesale; failure keeps the previous Status.
func (p *Poller) apply(ctx context.Context, gen uint64, s detection.Status, fetchErr error, elapsed time.Duration) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.stopped || p.gen != gen {
		p.mu.Unlock()
		logger.Debug(logModule, "discarding response settled after stop")
		return
	}
	p.inFlight = false
	if ctx.Err() != nil {
		// owner context gone without Stop: nothing left to render into
		p.mu.Unlock()
		return
	}

	prev := p.state
	next := prev
	next.Loading = false
	next.CheckedAt = p.now()

	if fetchErr == nil {
		next.Status = s
		next.Connectivity = detection.Connected()
		next.UpdatedAt = next.CheckedAt
		next.ConsecutiveFailures = 0
	} else {
		next.Connectivity = detection.DisconnectedBy(fetchErr)
		next.ConsecutiveFailures++
	}

	p.state = next
	subs := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	if p.obs != nil {
		p.obs.ObservePoll(fetchErr, elapsed)
		p.obs.ObserveState(next)
	}
	logTransition(prev, next, fetchErr)

	for _, fn := range subs {
		fn(next)
	}
}

func logTransition(prev, next State, err error) {
	switch {
	case err == nil && prev.Connectivity.Link != next.Connectivity.Link:
		logger.Info(logModule, "detection server reachable")
	case err != nil && prev.Connectivity.Link != next.Connectivity.Link:
		logger.Warn(logModule, "detection server unreachable: %v", err)
	case err != nil:
		logger.Debug(logModule, "still unreachable (failures=%d): %v", next.ConsecutiveFailures, err)
	}

	if err == nil && prev.Status != next.Status {
		logger.Info(logModule, "status shirt=%t pants=%t uniform=%t",
			next.Status.ShirtDetected, next.Status.PantsDetected, next.Status.UniformDetected)
	}
}
