package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/navintent/pkg/debounce"
	"github.com/vango-dev/navintent/pkg/middleware"
)

const (
	liveReadLimit    = 4096
	liveWriteTimeout = 5 * time.Second
)

// Live search frame types.
const (
	frameInput   = "input"
	frameSubmit  = "submit"
	frameSettled = "settled"
	frameError   = "error"
)

// clientFrame is a message from the live search client.
type clientFrame struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	DelayMs *int64 `json:"delayMs,omitempty"`
}

// serverFrame is a message pushed to the live search client.
type serverFrame struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// liveSession is one live search WebSocket connection and its debounced
// query.
type liveSession struct {
	conn   *websocket.Conn
	query  *debounce.Value[string]
	logger *slog.Logger

	writeMu sync.Mutex
}

func (s *Server) handleLiveSearch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		middleware.RecordWebSocketError("upgrade")
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(liveReadLimit)

	ls := &liveSession{
		conn:   conn,
		query:  debounce.New("", debounce.WithClock(s.opts.Clock)),
		logger: s.logger.With("request_id", chimw.GetReqID(r.Context())),
	}
	ls.query.OnSettle(func(value string) {
		middleware.RecordSettle()
		ls.send(serverFrame{Type: frameSettled, Value: value})
	})

	s.mu.Lock()
	s.sessions[ls] = struct{}{}
	s.mu.Unlock()

	start := time.Now()
	middleware.RecordSessionOpen()
	ls.logger.Debug("live search session opened")

	defer func() {
		ls.query.Dispose()
		conn.Close()

		s.mu.Lock()
		delete(s.sessions, ls)
		s.mu.Unlock()

		middleware.RecordSessionClose(time.Since(start))
		ls.logger.Debug("live search session closed", "duration", time.Since(start))
	}()

	s.readLoop(ls)
}

// readLoop applies client frames until the connection fails.
func (s *Server) readLoop(ls *liveSession) {
	for {
		_, msg, err := ls.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				middleware.RecordWebSocketError("read")
				ls.logger.Warn("read error", "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			middleware.RecordWebSocketError("decode")
			ls.send(serverFrame{Type: frameError, Error: "invalid frame: " + err.Error()})
			continue
		}

		switch frame.Type {
		case frameInput:
			ls.query.Update(frame.Value, s.delayFor(frame.DelayMs))
		case frameSubmit:
			ls.query.Flush()
		default:
			ls.send(serverFrame{Type: frameError, Error: "unknown frame type " + `"` + frame.Type + `"`})
		}
	}
}

// delayFor clamps a client-requested delay to [0, MaxDelay].
func (s *Server) delayFor(delayMs *int64) time.Duration {
	if delayMs == nil {
		return s.opts.Debounce
	}
	ms := *delayMs
	if ms <= 0 {
		return 0
	}
	if limit := s.opts.MaxDelay.Milliseconds(); ms > limit {
		return s.opts.MaxDelay
	}
	return time.Duration(ms) * time.Millisecond
}

func (ls *liveSession) send(frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	ls.writeMu.Lock()
	defer ls.writeMu.Unlock()
	ls.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := ls.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		middleware.RecordWebSocketError("write")
		ls.logger.Debug("write failed", "error", err)
	}
}

// closeGoingAway tells the client the server is stopping and closes the
// connection, which ends the read loop.
func (ls *liveSession) closeGoingAway() {
	ls.writeMu.Lock()
	ls.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	ls.writeMu.Unlock()
	ls.conn.Close()
}
