package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/classtrack/rollcall/internal/stream"
)

const (
	writeTimeout = 10 * time.Second
	maxFrameSize = 8 << 20 // 8 MiB per inbound frame
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
)

// StreamHandler bridges websocket connections to the frame pipeline.
// Clients send camera frames as binary messages and receive annotated
// frames back; view-only clients just never send.
type StreamHandler struct {
	pipeline    *stream.Pipeline
	broadcaster *stream.Broadcaster
	upgrader    websocket.Upgrader
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(pipeline *stream.Pipeline, broadcaster *stream.Broadcaster) *StreamHandler {
	return &StreamHandler{
		pipeline:    pipeline,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser origin is checked by the CORS layer; the websocket
			// handshake accepts the same clients.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and runs it until either side closes.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, frames := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.writeLoop(conn, frames, done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		// Full queue means the frame is dropped, never a stalled socket.
		h.pipeline.Submit(data)
	}

	close(done)
}

// writeLoop pushes annotated frames and pings to one viewer. Write
// errors end the loop; the read side notices on its next read.
func (h *StreamHandler) writeLoop(conn *websocket.Conn, frames <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
