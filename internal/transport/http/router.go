package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
)

// EventSource delivers a party's realtime events to a local subscriber; the
// websocket handler bridges it to clients.
type EventSource interface {
	Subscribe(ctx context.Context, partyID string) (<-chan domain.Event, func(), error)
}

// NewRouter wires all HTTP routes. Route shapes follow the public API:
// party management under /api/party, player and host operations under
// /api/quiz, realtime on /ws.
func NewRouter(service *app.PartyService, events EventSource) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := &Handler{service: service}
	ws := NewWSHandler(service, events)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", ws.Serve)

	api := r.Group("/api")
	api.POST("/party/create", h.createParty)
	api.POST("/party/join", h.joinParty)
	api.GET("/party/:code", h.partyStatus)

	player := api.Group("/quiz/player/:contestantId")
	player.PUT("/answer", h.submitAnswer)
	player.GET("/answers", h.listAnswers)
	player.GET("/leaderboard", h.playerLeaderboard)

	host := api.Group("/quiz/host/:hostId")
	host.PUT("/current-question", h.advanceQuestion)
	host.PUT("/status", h.setStatus)
	host.POST("/question/:questionNumber", h.revealQuestion)
	host.POST("/finish", h.finishQuiz)
	host.GET("/status", h.hostStatus)
	host.GET("/leaderboard", h.hostLeaderboard)

	return r
}
