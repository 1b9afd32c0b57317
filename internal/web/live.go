package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/cure-chamber/internal/status"
)

// livePushInterval is how often a connected browser receives a fresh
// snapshot.
const livePushInterval = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin only: the page and the feed come from the same daemon.
	CheckOrigin: func(r *http.Request) bool {
		return r.Header.Get("Origin") == "" || sameHost(r)
	},
}

func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// handleLive upgrades the connection and pushes status JSON once per second
// until the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	// Discard client frames; the feed is one-way. Read errors end the
	// session from the write loop via the closed connection.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	// First frame immediately, then on the ticker.
	if err := s.writeSnapshot(conn); err != nil {
		return
	}
	for range ticker.C {
		if err := s.writeSnapshot(conn); err != nil {
			return
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	snap := s.tracker.Snapshot()
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, status.FormatJSON(snap))
}
