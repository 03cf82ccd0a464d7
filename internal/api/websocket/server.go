// Package websocket streams query lifecycle events to browser dashboards.
package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes the query event feed
type Server struct {
	hub *Hub
}

// NewServer creates a feed around hub
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// Start runs the hub until ctx is done
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

// Hub returns the hub that receives events
func (s *Server) Hub() *Hub {
	return s.hub
}

// HandleQueries upgrades the request and subscribes it to query events
func (s *Server) HandleQueries(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "websocket").Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
