package bridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EventMessage is one climate event as sent on /events
type EventMessage struct {
	DeviceID string           `json:"device_id"`
	Name     string           `json:"name"`
	Settings command.Settings `json:"settings"`
	OK       bool             `json:"ok"`
	Error    string           `json:"error,omitempty"`
	Time     time.Time        `json:"time"`
}

func newEventMessage(ev climate.Event) EventMessage {
	msg := EventMessage{
		DeviceID: ev.DeviceID,
		Name:     ev.Name,
		Settings: ev.Settings,
		OK:       ev.Err == nil,
		Time:     time.Now().UTC(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

// handleEvents upgrades to a websocket and streams climate events until the
// client goes away or the bridge shuts down. Clients only receive; anything
// they send is discarded.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		logging.Debug("Websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	events, unsubscribe := s.manager.Subscribe()
	defer unsubscribe()

	remoteAddr := r.RemoteAddr
	if !s.trackStream(remoteAddr, conn) {
		_ = conn.Close()
		return
	}
	defer s.untrackStream(remoteAddr)

	logging.LogConnection(remoteAddr, "event_stream_opened")
	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "event_stream_closed")
	}()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge shutting down"),
				time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newEventMessage(ev)); err != nil {
				logging.Debug("Failed to write event", zap.String("remote_addr", remoteAddr), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames so pongs and close frames are processed.
// It closes done when the connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
