// Package training exposes a running training session over HTTP: a status
// endpoint and a websocket that streams progress reports.
package training

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/Zarux/ticqtactoe/internal/logger"
)

var wsIdlePingInterval = 30 * time.Second

func HTTPHandler(hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.NewMiddleware())
	r.Use(middleware.Recoverer)

	r.Get("/api/trainer/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.Status())
	})
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})

	return r
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{send: make(chan []byte, 16)}
	hub.register(c)
	c.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(hub.Status())})
	log.Debug("progress client connected")

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			log.Debug("progress client write failed", "err", err)
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.unregister(c)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == "request_status" {
			c.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(hub.Status())})
		}
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	interval := wsIdlePingInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < interval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
