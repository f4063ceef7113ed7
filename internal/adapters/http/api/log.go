package api

import (
	"context"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LogHandler exposes the in-memory log buffer.
type LogHandler struct {
	ring   *logger.Ring
	logger logger.Logger
}

// NewLogHandler creates a new log handler. A nil ring serves an empty log.
func NewLogHandler(ring *logger.Ring, l logger.Logger) *LogHandler {
	return &LogHandler{ring: ring, logger: l}
}

// HandleLog handles GET /log: every buffered line, HTML-escaped.
func (h *LogHandler) HandleLog(w http.ResponseWriter, _ *http.Request) {
	var lines []string
	if h.ring != nil {
		lines = h.ring.Lines()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(RenderLogPage(lines)))
}

// RenderLogPage wraps lines in the /log HTML page.
func RenderLogPage(lines []string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><pre>")
	for _, l := range lines {
		sb.WriteString("<div>")
		sb.WriteString(html.EscapeString(l))
		sb.WriteString("</div>")
	}
	sb.WriteString("</pre></body></html>")
	return sb.String()
}

// HandleStream handles GET /log/stream: a websocket receiving every new log
// line as a text message. Streams end when ctx is done or the client goes
// away.
func (h *LogHandler) HandleStream(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.ring == nil {
			http.Error(w, "log buffer disabled", http.StatusServiceUnavailable)
			return
		}

		// Subscribe first so nothing written after the handshake is missed.
		lines, cancel := h.ring.Subscribe()
		defer cancel()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn(r.Context(), "log stream upgrade failed", logger.Error(err))
			return
		}

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		h.pump(ctx, conn, lines, gone)
	}
}

func (h *LogHandler) pump(ctx context.Context, conn *websocket.Conn, lines <-chan string, gone <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-gone:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
