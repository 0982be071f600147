package ticqtactoe

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zarux/ticqtactoe/internal/logger"
)

type brainInfo interface {
	Len() int
}

type httpHandler struct {
	svc   *Service
	brain brainInfo
}

func HTTPHandler(s *Service, brain brainInfo) http.Handler {
	h := &httpHandler{
		svc:   s,
		brain: brain,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.NewMiddleware())
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", h.HandlePing)
	r.Get("/api/brain", h.HandleBrain)
	r.Post("/api/move", h.HandleMove)

	return r
}

// a move request is nine short symbols and a side
const maxMoveBody = 1 << 12

type moveRequest struct {
	Board  []string `json:"board"`
	AISide string   `json:"aiSide"`
}

type moveResponse struct {
	Move     *int `json:"move"`
	GameOver bool `json:"game_over"`
}

func (h *httpHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req moveRequest
	body := http.MaxBytesReader(w, r.Body, maxMoveBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	move, gameOver, err := h.svc.NextMove(ctx, req.Board, req.AISide)
	if err != nil {
		log.Warn("rejected move request", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, moveResponse{Move: move, GameOver: gameOver})
}

func (h *httpHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *httpHandler) HandleBrain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"entries": h.brain.Len()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
