// internal/stream/monitor.go
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/logger"
)

const logModule = "stream"

const defaultMaxFrameBytes = 8 << 20

var (
	ErrAlreadyStarted = errors.New("stream: already started")
	ErrStopped        = errors.New("stream: stopped")
	errStreamEnded    = errors.New("video feed ended")
)

// Source opens the remote MJPEG feed.
type Source interface {
	OpenVideoFeed(ctx context.Context) (io.ReadCloser, string, error)
}

// Observer receives stream events. Implementations must not block.
type Observer interface {
	ObserveFrame(size int)
	ObserveStreamError(err error)
}

type Config struct {
	ReconnectDelay time.Duration
	MaxFrameBytes  int64
}

// State is the monitor-owned view of the feed. It shares nothing with the poller.
type State struct {
	Connectivity detection.Connectivity `json:"connectivity"`
	Frames       uint64                 `json:"frames"`
	LastFrameAt  time.Time              `json:"last_frame_at,omitempty"`
	Reconnects   uint64                 `json:"reconnects"`
}

// Monitor consumes the video feed and keeps the latest frame.
// Its failures never reach the status poller.
type Monitor struct {
	cfg Config
	src Source
	obs Observer

	mu      sync.Mutex
	state   State
	frame   []byte
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[int]chan []byte
	nextSub int
}

type Option func(*Monitor)

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.obs = o }
}

func New(cfg Config, src Source, opts ...Option) (*Monitor, error) {
	if src == nil {
		return nil, errors.New("stream: source required")
	}
	if cfg.ReconnectDelay <= 0 {
		return nil, errors.New("stream: reconnect delay must be > 0")
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = defaultMaxFrameBytes
	}

	m := &Monitor{
		cfg:  cfg,
		src:  src,
		subs: make(map[int]chan []byte),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *Monitor) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LatestFrame returns the most recent JPEG, if any.
func (m *Monitor) LatestFrame() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.frame != nil
}

// SubscribeFrames returns a channel of frames. Slow readers miss frames rather
// than stall the reader loop. The channel is closed by cancel or Stop.
func (m *Monitor) SubscribeFrames(buffer int) (<-chan []byte, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan []byte, buffer)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrStopped
	}
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, m.done)
	return nil
}

// Stop cancels the feed and returns after the reader loop has exited.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	m.mu.Lock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := m.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		m.fail(err)

		t := time.NewTimer(m.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		m.mu.Lock()
		m.state.Reconnects++
		m.mu.Unlock()
	}
}

// consume reads one connection until it breaks.
func (m *Monitor) consume(ctx context.Context) error {
	body, boundary, err := m.src.OpenVideoFeed(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	m.mu.Lock()
	wasConnected := m.state.Connectivity.IsConnected()
	m.state.Connectivity = detection.Connected()
	m.mu.Unlock()
	if !wasConnected {
		logger.Info(logModule, "video feed connected")
	}

	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return errStreamEnded
		}
		if err != nil {
			return fmt.Errorf("read part: %w", err)
		}

		data, err := io.ReadAll(io.LimitReader(part, m.cfg.MaxFrameBytes+1))
		part.Close()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if int64(len(data)) > m.cfg.MaxFrameBytes {
			return fmt.Errorf("frame exceeds %d bytes", m.cfg.MaxFrameBytes)
		}
		if len(data) == 0 {
			continue
		}
		m.publish(bytes.TrimSuffix(data, []byte("\r\n")))
	}
}

func (m *Monitor) publish(frame []byte) {
	m.mu.Lock()
	m.frame = frame
	m.state.Frames++
	m.state.LastFrameAt = time.Now()
	for _, ch := range m.subs {
		select {
		case ch <- frame:
		default:
		}
	}
	m.mu.Unlock()

	if m.obs != nil {
		m.obs.ObserveFrame(len(frame))
	}
}

func (m *Monitor) fail(err error) {
	m.mu.Lock()
	wasDown := m.state.Connectivity.Link == detection.LinkDisconnected
	m.state.Connectivity = detection.DisconnectedBy(err)
	m.mu.Unlock()

	if m.obs != nil {
		m.obs.ObserveStreamError(err)
	}
	if wasDown {
		logger.Debug(logModule, "video feed still down: %v", err)
	} else {
		logger.Warn(logModule, "video feed lost: %v", err)
	}
}
