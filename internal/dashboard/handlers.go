// internal/dashboard/handlers.go
package dashboard

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tamzrod/uniform-watch/internal/logger"
)

// upgrader accepts any origin; the dashboard is served on the local network only.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *server) home(ctx echo.Context) error {
	return ctx.HTML(http.StatusOK, indexHTML)
}

func (s *server) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, newStatusView(s.opts.Poller.Snapshot()))
}

func (s *server) streamState(ctx echo.Context) error {
	if s.opts.Stream == nil {
		return ctx.JSON(http.StatusOK, streamView{Enabled: false})
	}
	return ctx.JSON(http.StatusOK, newStreamView(s.opts.Stream.Snapshot()))
}

func (s *server) currentSession(ctx echo.Context) error {
	u, err := s.opts.Session.Require()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, u)
}

// videoFeed relays the monitor's frames, or a blank frame when the feed is off.
func (s *server) videoFeed(ctx echo.Context) error {
	w := ctx.Response()
	r := ctx.Request()

	if s.opts.Stream == nil {
		streamMJPEG(r.Context(), s.stopCtx.Done(), w, nil, nil)
		return nil
	}

	frames, cancel := s.opts.Stream.SubscribeFrames(2)
	defer cancel()

	first, _ := s.opts.Stream.LatestFrame()
	streamMJPEG(r.Context(), s.stopCtx.Done(), w, first, frames)
	return nil
}

// ws registers the client with the hub and blocks on reads until it goes away.
func (s *server) ws(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		logger.Debug(logModule, "ws upgrade failed: %v", err)
		return nil
	}

	if !s.hub.Register(conn) {
		conn.Close()
		return nil
	}
	defer s.hub.Unregister(conn)

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
