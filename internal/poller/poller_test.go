// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uniform-watch/internal/detection"
)

// ---- fakes ----

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker { return &manualTicker{ch: make(chan time.Time)} }

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

// fire blocks until the run loop has accepted the tick.
func (m *manualTicker) fire(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("run loop did not accept tick")
	}
}

type result struct {
	status detection.Status
	err    error
}

// scriptedClient returns queued results in order; an empty queue repeats the last one.
type scriptedClient struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (c *scriptedClient) FetchStatus(ctx context.Context) (detection.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	r := c.results[0]
	if len(c.results) > 1 {
		c.results = c.results[1:]
	}
	return r.status, r.err
}

// gatedClient blocks every call until release receives a result.
// It ignores ctx on purpose to model a response that settles late.
type gatedClient struct {
	entered  chan struct{}
	release  chan result
	returned chan struct{}

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func newGatedClient() *gatedClient {
	return &gatedClient{
		entered:  make(chan struct{}, 16),
		release:  make(chan result),
		returned: make(chan struct{}, 16),
	}
}

func (c *gatedClient) FetchStatus(ctx context.Context) (detection.Status, error) {
	c.calls.Add(1)
	n := c.active.Add(1)
	for {
		m := c.maxActive.Load()
		if n <= m || c.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	c.entered <- struct{}{}
	r := <-c.release
	c.active.Add(-1)
	c.returned <- struct{}{}
	return r.status, r.err
}

func newTestPoller(t *testing.T, client Client) (*Poller, *manualTicker) {
	t.Helper()
	p, err := New(Config{Interval: time.Second}, client)
	require.NoError(t, err)

	tk := newManualTicker()
	p.newTicker = func(time.Duration) ticker { return tk }
	return p, tk
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

var (
	allTrue   = detection.Status{ShirtDetected: true, PantsDetected: true, UniformDetected: true}
	shirtOnly = detection.Status{ShirtDetected: true}
)

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Interval: time.Second}, nil)
	assert.Error(t, err)

	_, err = New(Config{Interval: 0}, &scriptedClient{})
	assert.Error(t, err)

	p, err := New(Config{Interval: time.Second, Timeout: 5 * time.Second}, &scriptedClient{})
	require.NoError(t, err)
	assert.Equal(t, time.Second, p.cfg.Timeout)
}

func TestInitialState_Loading(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{{status: allTrue}}})

	s := p.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, detection.LinkUnknown, s.Connectivity.Link)
	assert.Equal(t, HeadlineLoading, s.Headline())
	assert.Equal(t, detection.Status{}, s.Status)
}

func TestPollOnce_Success(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{{status: allTrue}}})

	s, err := p.PollOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Loading)
	assert.True(t, s.Connectivity.IsConnected())
	assert.Equal(t, allTrue, s.Status)
	assert.Equal(t, HeadlineDetected, s.Headline())
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestPollOnce_FirstFailureClearsLoading(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{
		{err: &detection.NetworkError{Op: "fetch status", Err: errors.New("refused")}},
	}})

	s, err := p.PollOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Loading)
	assert.Equal(t, detection.LinkDisconnected, s.Connectivity.Link)
	assert.Equal(t, "Unable to connect to detection server", s.Headline())
	assert.Equal(t, detection.Status{}, s.Status)
}

func TestStaleOnFailure(t *testing.T) {
	client := &scriptedClient{results: []result{
		{status: shirtOnly},
		{err: &detection.HTTPError{Op: "fetch status", StatusCode: 500}},
		{err: &detection.MalformedResponseError{Op: "fetch status", Err: errors.New("eof")}},
		{status: allTrue},
		{err: &detection.NetworkError{Op: "fetch status", Err: context.DeadlineExceeded}},
	}}
	p, _ := newTestPoller(t, client)

	want := []struct {
		status   detection.Status
		link     detection.Link
		failures int
	}{
		{shirtOnly, detection.LinkConnected, 0},
		{shirtOnly, detection.LinkDisconnected, 1},
		{shirtOnly, detection.LinkDisconnected, 2},
		{allTrue, detection.LinkConnected, 0},
		{allTrue, detection.LinkDisconnected, 1},
	}

	for i, w := range want {
		s, err := p.PollOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, w.status, s.Status, "step %d", i)
		assert.Equal(t, w.link, s.Connectivity.Link, "step %d", i)
		assert.Equal(t, w.failures, s.ConsecutiveFailures, "step %d", i)
	}
}

func TestScenario_AllGreenThenTimeout(t *testing.T) {
	client := &scriptedClient{results: []result{
		{status: allTrue},
		{err: &detection.NetworkError{Op: "fetch status", Err: context.DeadlineExceeded}},
	}}
	p, _ := newTestPoller(t, client)

	s, _ := p.PollOnce(context.Background())
	require.Equal(t, HeadlineDetected, s.Headline())
	updated := s.UpdatedAt

	s, _ = p.PollOnce(context.Background())
	assert.Equal(t, allTrue, s.Status)
	assert.Equal(t, detection.LinkDisconnected, s.Connectivity.Link)
	assert.Equal(t, "Detection server did not answer in time", s.Connectivity.Reason)
	assert.Equal(t, updated, s.UpdatedAt)
	assert.True(t, s.Stale())
}

func TestStartStop_BeforeFirstTick(t *testing.T) {
	client := &scriptedClient{results: []result{{status: allTrue}}}
	p, tk := newTestPoller(t, client)

	var notified atomic.Int32
	p.Subscribe(func(State) { notified.Add(1) })

	before := p.Snapshot()
	require.NoError(t, p.Start(context.Background()))
	p.Stop()

	assert.True(t, tk.stopped.Load(), "ticker must be stopped")
	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, int32(0), notified.Load())
}

func TestStart_Twice(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{{status: allTrue}}})

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()
	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)
}

func TestStart_AfterStop(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{{status: allTrue}}})

	p.Stop()
	p.Stop() // idempotent
	assert.ErrorIs(t, p.Start(context.Background()), ErrStopped)

	_, err := p.PollOnce(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestTicks_DriveRequests(t *testing.T) {
	client := &scriptedClient{results: []result{{status: shirtOnly}}}
	p, tk := newTestPoller(t, client)

	updates := make(chan State, 4)
	p.Subscribe(func(s State) { updates <- s })

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	tk.fire(t)
	select {
	case s := <-updates:
		assert.Equal(t, shirtOnly, s.Status)
	case <-time.After(2 * time.Second):
		t.Fatalf("no state update after tick")
	}
}

func TestOverlappingTicks_SingleInFlight(t *testing.T) {
	client := newGatedClient()
	p, tk := newTestPoller(t, client)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	tk.fire(t)
	<-client.entered

	// Three more ticks while the first request is pending.
	tk.fire(t)
	tk.fire(t)
	tk.fire(t)
	waitFor(t, func() bool { return p.SkippedTicks() == 3 })

	client.release <- result{status: allTrue}
	<-client.returned
	waitFor(t, func() bool { return !p.Snapshot().Loading })

	// Slot is free again: the next tick issues a new request.
	tk.fire(t)
	<-client.entered
	client.release <- result{status: shirtOnly}
	<-client.returned
	waitFor(t, func() bool { return p.Snapshot().Status == shirtOnly })

	assert.Equal(t, int32(1), client.maxActive.Load())
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestResponseAfterStop_Discarded(t *testing.T) {
	client := newGatedClient()
	p, tk := newTestPoller(t, client)

	var notified atomic.Int32
	p.Subscribe(func(State) { notified.Add(1) })

	require.NoError(t, p.Start(context.Background()))

	tk.fire(t)
	<-client.entered

	before := p.Snapshot()
	p.Stop()

	// The delayed request settles successfully after teardown.
	client.release <- result{status: allTrue}
	<-client.returned
	p.Wait()

	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, int32(0), notified.Load())
	assert.True(t, tk.stopped.Load())
}

func TestSubscribe_Cancel(t *testing.T) {
	p, _ := newTestPoller(t, &scriptedClient{results: []result{{status: allTrue}}})

	var n atomic.Int32
	cancel := p.Subscribe(func(State) { n.Add(1) })

	_, _ = p.PollOnce(context.Background())
	cancel()
	_, _ = p.PollOnce(context.Background())

	assert.Equal(t, int32(1), n.Load())
}

type countingObserver struct {
	polls, failures, skipped, states atomic.Int32
}

func (o *countingObserver) ObservePoll(err error, _ time.Duration) {
	o.polls.Add(1)
	if err != nil {
		o.failures.Add(1)
	}
}
func (o *countingObserver) ObserveSkippedTick() { o.skipped.Add(1) }
func (o *countingObserver) ObserveState(State)  { o.states.Add(1) }

func TestObserver(t *testing.T) {
	obs := &countingObserver{}
	p, err := New(Config{Interval: time.Second}, &scriptedClient{results: []result{
		{status: allTrue},
		{err: &detection.HTTPError{StatusCode: 502}},
	}}, WithObserver(obs))
	require.NoError(t, err)

	_, _ = p.PollOnce(context.Background())
	_, _ = p.PollOnce(context.Background())

	assert.Equal(t, int32(2), obs.polls.Load())
	assert.Equal(t, int32(1), obs.failures.Load())
	assert.Equal(t, int32(2), obs.states.Load())
}
