// internal/dashboard/server.go
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/metrics"
	"github.com/tamzrod/uniform-watch/internal/poller"
	"github.com/tamzrod/uniform-watch/internal/roster"
	"github.com/tamzrod/uniform-watch/internal/session"
	"github.com/tamzrod/uniform-watch/internal/stream"
)

const logModule = "dashboard"

// StatusSource is the poller as seen by the dashboard.
type StatusSource interface {
	Snapshot() poller.State
	Subscribe(fn func(poller.State)) (cancel func())
}

// FrameSource is the video monitor as seen by the dashboard.
type FrameSource interface {
	Snapshot() stream.State
	LatestFrame() ([]byte, bool)
	SubscribeFrames(buffer int) (<-chan []byte, func())
}

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Poller  StatusSource
		Stream  FrameSource      // nil when the video feed is disabled
		Metrics *metrics.Metrics // nil disables /metrics
		Session session.Context
		Roster  *roster.Service // nil disables the roster API
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		hub  *hub

		stop      context.CancelFunc
		stopCtx   context.Context
		unsub     func()
		closeOnce sync.Once
	}
)

var _ Server = (*server)(nil)

// NewServer builds the dashboard and starts pushing poller states to websocket clients.
// Stop releases the subscription even if Start was never called.
func NewServer(opts *Options) (Server, error) {
	if opts == nil || opts.Poller == nil {
		return nil, errors.New("dashboard: poller required")
	}

	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.stopCtx, s.stop = context.WithCancel(context.Background())

	var onCount func(int)
	if opts.Metrics != nil {
		onCount = func(n int) { opts.Metrics.WebsocketClients.Store(int64(n)) }
	}
	s.hub = newHub(s.currentStatus, onCount)
	go s.hub.run(s.stopCtx)
	s.unsub = opts.Poller.Subscribe(s.hub.Publish)

	s.setup()
	return s, nil
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))

	s.app.HTTPErrorHandler = appHTTPErrorHandler

	s.app.GET("/", s.home)
	s.app.GET("/video_feed", s.videoFeed)
	s.app.GET("/ws", s.ws)
	if s.opts.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	api := s.app.Group("/api")
	api.GET("/status", s.status)
	api.GET("/stream", s.streamState)
	api.GET("/session", s.currentSession)

	registerRosterAPI(api, s.requireSession, s.opts.Roster)
}

func (s *server) Start() error {
	logger.Info(logModule, "listening on %s", s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.unsub()
		s.stop()
		<-s.hub.shutdown
	})
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) currentStatus() []byte {
	msg, err := json.Marshal(newStatusView(s.opts.Poller.Snapshot()))
	if err != nil {
		return nil
	}
	return msg
}

// requireSession rejects requests while nobody is signed in.
func (s *server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := s.opts.Session.Require(); err != nil {
			return errUnauthorized
		}
		return next(ctx)
	}
}
