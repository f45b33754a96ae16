package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve streams a session's events over conn until the client goes away.
// The subscription is taken before backlog is loaded, so nothing committed
// in between is lost; live events with a seq at or below the last written
// one are skipped so the client sees each event once.
func Serve(h *Hub, conn *websocket.Conn, sessionID string, backlog func() ([]game.ActionEvent, error)) {
	live, cancel := h.Subscribe(sessionID)
	defer cancel()

	past, err := backlog()
	if err != nil {
		logging.Error("failed to load event backlog", err, logging.Fields{constants.LogFieldSessionID: sessionID})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backlog unavailable"))
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, sessionID, past, live, done)
}

// readPump discards client frames; it only keeps the pong deadline fresh
// and notices disconnects.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Warn("failed to set read deadline", logging.Fields{"error": err.Error()})
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket closed unexpectedly", logging.Fields{"error": err.Error()})
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, sessionID string, backlog []game.ActionEvent, live <-chan game.ActionEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := conn.Close(); err != nil {
			logging.Debug("failed to close websocket", logging.Fields{constants.LogFieldSessionID: sessionID})
		}
	}()

	var lastSeq int64
	write := func(ev game.ActionEvent) bool {
		if ev.Seq <= lastSeq {
			return true
		}
		lastSeq = ev.Seq
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return false
		}
		return conn.WriteJSON(ev) == nil
	}

	for _, ev := range backlog {
		if !write(ev) {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-live:
			if !ok {
				// dropped as a slow consumer or the hub shut down
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync from event log"))
				return
			}
			if !write(ev) {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logging.Debug("ping failed", logging.Fields{constants.LogFieldSessionID: sessionID})
				return
			}
		}
	}
}
