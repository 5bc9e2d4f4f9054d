package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
)

// LiveHandler streams leaderboard snapshots over a websocket.
type LiveHandler struct {
	quizzes     *app.QuizService
	leaderboard *app.LeaderboardService
	log         logrus.FieldLogger
	upgrader    websocket.Upgrader
}

func NewLiveHandler(quizzes *app.QuizService, leaderboard *app.LeaderboardService, log logrus.FieldLogger) *LiveHandler {
	return &LiveHandler{
		quizzes:     quizzes,
		leaderboard: leaderboard,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeLive sends the current standings on connect and a fresh snapshot after
// every accepted submission. Client messages are read only to notice disconnects.
func (h *LiveHandler) ServeLive(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")
	if _, err := h.quizzes.Get(r.Context(), quizID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	updates, cancel, err := h.leaderboard.Subscribe(r.Context(), quizID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).WithField("quiz_id", quizID).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// This goroutine is the connection's only writer.
	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb}); err != nil {
				h.log.WithError(err).WithField("quiz_id", quizID).Debug("ws write failed")
				return
			}
		case <-gone:
			return
		}
	}
}
