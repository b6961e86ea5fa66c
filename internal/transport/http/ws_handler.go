package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/logging"
)

// WSHandler streams a party's realtime events to websocket clients. Clients
// subscribe with the partyId they received from create/join; events flow one
// way, server to client.
type WSHandler struct {
	service  *app.PartyService
	events   EventSource
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PartyService, events EventSource) *WSHandler {
	return &WSHandler{
		service: service,
		events:  events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(c *gin.Context) {
	partyID := c.Query("partyId")
	if partyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing partyId"})
		return
	}
	if _, err := h.service.PartyByID(c.Request.Context(), partyID); err != nil {
		fail(c, err)
		return
	}

	updates, cancel, err := h.events.Subscribe(c.Request.Context(), partyID)
	if err != nil {
		fail(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Log.Warnf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})

	// Reader discards inbound frames; its job is noticing the close.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logging.Log.Debugf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
