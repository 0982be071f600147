package training

import (
	"encoding/json"
	"sync"

	"github.com/Zarux/ticqtactoe/pkg/trainer"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Status is the latest known state of a training run.
type Status struct {
	Running  bool              `json:"running"`
	Regime   trainer.Regime    `json:"regime"`
	Episodes int               `json:"episodes"`
	Latest   *trainer.Progress `json:"latest,omitempty"`
	Reports  int               `json:"reports"`
	Error    string            `json:"error,omitempty"`
}

type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	status  Status

	broadcastProgress chan trainer.Progress
	broadcastStatus   chan Status
}

type client struct {
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:           make(map[*client]struct{}),
		broadcastProgress: make(chan trainer.Progress, 32),
		broadcastStatus:   make(chan Status, 8),
	}
}

// Run fans queued messages out to the connected clients until done closes.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case p := <-h.broadcastProgress:
			h.sendAll(wsMessage{Type: "progress", Payload: mustMarshal(p)})
		case s := <-h.broadcastStatus:
			h.sendAll(wsMessage{Type: "status", Payload: mustMarshal(s)})
		}
	}
}

func (h *Hub) sendAll(msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.sendJSON(msg)
	}
}

// Start marks a run as started.
func (h *Hub) Start(cfg trainer.Config) {
	h.mu.Lock()
	h.status = Status{Running: true, Regime: cfg.Regime, Episodes: cfg.Episodes}
	s := h.status
	h.mu.Unlock()

	h.queueStatus(s)
}

// Publish records p as the latest report and queues it for the clients.
// A full queue drops the report; Status still reflects it.
func (h *Hub) Publish(p trainer.Progress) {
	h.mu.Lock()
	h.status.Latest = &p
	h.status.Reports++
	h.mu.Unlock()

	select {
	case h.broadcastProgress <- p:
	default:
	}
}

// Finish marks the run as over. A nil err means it completed.
func (h *Hub) Finish(err error) {
	h.mu.Lock()
	h.status.Running = false
	if err != nil {
		h.status.Error = err.Error()
	}
	s := h.status
	h.mu.Unlock()

	h.queueStatus(s)
}

func (h *Hub) queueStatus(s Status) {
	select {
	case h.broadcastStatus <- s:
	default:
	}
}

func (h *Hub) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) hasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
