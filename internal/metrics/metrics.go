// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/poller"
)

// Metrics holds all application metrics.
// It satisfies poller.Observer and stream.Observer.
type Metrics struct {
	// Poller counters
	PollsOK      atomic.Uint64
	PollsFailed  atomic.Uint64
	SkippedTicks atomic.Uint64

	// Last applied poller state
	DetectionUp     atomic.Uint64 // 0 = down/unknown, 1 = connected
	ShirtDetected   atomic.Uint64
	PantsDetected   atomic.Uint64
	UniformDetected atomic.Uint64

	// Stream counters
	FramesReceived atomic.Uint64
	FrameBytes     atomic.Uint64
	StreamErrors   atomic.Uint64

	// Dashboard
	WebsocketClients atomic.Int64

	pollDuration prometheus.Histogram
	pollErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counter := func(name, help string, v *atomic.Uint64) {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(v.Load()) },
		))
	}
	gauge := func(name, help string, v *atomic.Uint64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return float64(v.Load()) },
		))
	}

	// Poller
	counter("uniformwatch_polls_ok_total", "Status polls that returned a well-formed document", &m.PollsOK)
	counter("uniformwatch_polls_failed_total", "Status polls that failed", &m.PollsFailed)
	counter("uniformwatch_skipped_ticks_total", "Ticks dropped because a request was pending", &m.SkippedTicks)

	// Detection state
	gauge("uniformwatch_detection_up", "Detection server reachable (0=no, 1=yes)", &m.DetectionUp)
	gauge("uniformwatch_shirt_detected", "Last known shirt detection", &m.ShirtDetected)
	gauge("uniformwatch_pants_detected", "Last known pants detection", &m.PantsDetected)
	gauge("uniformwatch_uniform_detected", "Last known uniform detection", &m.UniformDetected)

	// Stream
	counter("uniformwatch_stream_frames_total", "JPEG frames read from the video feed", &m.FramesReceived)
	counter("uniformwatch_stream_bytes_total", "JPEG bytes read from the video feed", &m.FrameBytes)
	counter("uniformwatch_stream_errors_total", "Video feed failures", &m.StreamErrors)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "uniformwatch_websocket_clients",
			Help: "Connected dashboard websocket clients",
		},
		func() float64 { return float64(m.WebsocketClients.Load()) },
	))

	m.pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "uniformwatch_poll_duration_seconds",
		Help:    "Status request latency",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	m.pollErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uniformwatch_poll_errors_total",
		Help: "Failed status polls by error code",
	}, []string{"code"})

	m.registry.MustRegister(m.pollDuration, m.pollErrors)
}

// ---- poller.Observer ----

func (m *Metrics) ObservePoll(err error, elapsed time.Duration) {
	m.pollDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.PollsFailed.Add(1)
		m.pollErrors.WithLabelValues(errorLabel(err)).Inc()
		return
	}
	m.PollsOK.Add(1)
}

func (m *Metrics) ObserveSkippedTick() { m.SkippedTicks.Add(1) }

func (m *Metrics) ObserveState(s poller.State) {
	m.DetectionUp.Store(boolVal(s.Connectivity.IsConnected()))
	m.ShirtDetected.Store(boolVal(s.Status.ShirtDetected))
	m.PantsDetected.Store(boolVal(s.Status.PantsDetected))
	m.UniformDetected.Store(boolVal(s.Status.UniformDetected))
}

// ---- stream.Observer ----

func (m *Metrics) ObserveFrame(size int) {
	m.FramesReceived.Add(1)
	m.FrameBytes.Add(uint64(size))
}

func (m *Metrics) ObserveStreamError(error) { m.StreamErrors.Add(1) }

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func errorLabel(err error) string {
	switch detection.Code(err) {
	case detection.CodeNetwork:
		return "network"
	case detection.CodeMalformed:
		return "malformed"
	default:
		return "http"
	}
}

func boolVal(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
