package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10

	cancelFrame = "cancel"
)

// EventStreamHandler exposes the event channel over WebSocket. Opening the
// socket is listen(); a "cancel" text frame or closing the socket clears the
// listener again.
type EventStreamHandler struct {
	relay    ports.EventRelay
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewEventStreamHandler(relay ports.EventRelay, log zerolog.Logger) *EventStreamHandler {
	return &EventStreamHandler{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Stream handles GET /v1/channels/location_events.
//
// @Summary      Listen on the event channel
// @Description  Upgrades to WebSocket. Each fix is a JSON text frame; send "cancel" to stop listening.
// @Tags         channels
// @Success      101
// @Failure      400  {object}  errorResponse
// @Router       /v1/channels/location_events [get]
func (h *EventStreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug().Err(err).Msg("event channel upgrade failed")
		return nil
	}
	defer conn.Close()

	sink := newWSSink(conn)
	h.relay.Listen(sink)
	h.log.Info().Str("remote", c.RealIP()).Msg("event channel listener attached")

	done := make(chan struct{})
	defer close(done)
	go sink.keepAlive(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if h.relay.Detach(sink) {
				h.log.Info().Msg("event channel listener detached")
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				h.log.Debug().Err(err).Msg("event channel read ended")
			}
			return nil
		}
		if kind == websocket.TextMessage && strings.TrimSpace(string(msg)) == cancelFrame {
			if h.relay.Detach(sink) {
				h.log.Info().Msg("event channel listener cancelled")
			}
			sink.close(websocket.CloseNormalClosure, cancelFrame)
			return nil
		}
	}
}

// Cancel handles DELETE /v1/channels/location_events/listener. It clears
// whichever listener is installed.
//
// @Summary      Cancel the event channel listener
// @Tags         channels
// @Success      204
// @Router       /v1/channels/location_events/listener [delete]
func (h *EventStreamHandler) Cancel(c echo.Context) error {
	h.relay.Cancel()
	return c.NoContent(http.StatusNoContent)
}

// wsSink writes fixes to one WebSocket connection. gorilla/websocket allows a
// single concurrent writer, hence mu.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

var _ ports.EventSink = (*wsSink)(nil)

func (s *wsSink) Send(fix domain.LocationFix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(fix)
}

func (s *wsSink) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *wsSink) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
