package handlers

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Overlay pages are embedded in OBS browser sources from any origin.
	CheckOrigin: func(*nethttp.Request) bool { return true },
}

// overlayStream upgrades the connection and pushes a full snapshot on every
// change event. Each message is a complete snapshot, never a delta, so
// re-delivery and reordering are harmless: the client keeps the highest seq.
func (h *Handler) overlayStream(w nethttp.ResponseWriter, r *nethttp.Request, token string) {
	m, err := h.overlays.Resolve(r.Context(), token)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	logger := loggerFromContext(r, h.logger)
	h.recorder.StreamSubscriberChange(1)
	defer h.recorder.StreamSubscriberChange(-1)

	sub := h.overlays.Subscribe(m.ID)
	defer sub.Cancel()
	defer conn.Close()

	// Reader goroutine: consume control frames, detect peer close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ctx context.Context) bool {
		snap, err := h.overlays.SnapshotForMatch(ctx, m.ID)
		if err != nil {
			if logger != nil {
				logger.Warn("overlay snapshot rebuild failed", "err", err)
			}
			return true // transient; keep the stream alive
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap); err != nil {
			return false
		}
		return true
	}

	if !send(r.Context()) {
		return
	}

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case _, open := <-sub.C:
			if !open {
				return
			}
			// Drain whatever queued up; one rebuild covers them all.
			for {
				select {
				case <-sub.C:
					continue
				default:
				}
				break
			}
			if !send(r.Context()) {
				return
			}
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
