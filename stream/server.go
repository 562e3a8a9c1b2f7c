// Package stream serves rendered frames over websockets and turns remote
// pointer drags into simulator input.
package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fluidsim/fluid"
)

const writeWait = 2 * time.Second

// Hello is the first message on every connection. Frames that follow are
// binary messages of Width*Height*4 bytes, RGBA, top row first.
type Hello struct {
	Type    string `json:"type"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Palette string `json:"palette"`
}

// Pointer is a drag sample sent by a client, in screen pixels with the
// origin at the top-left corner.
type Pointer struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PrevX float64 `json:"px"`
	PrevY float64 `json:"py"`
}

// Server is an http.Handler upgrading every request to a frame stream.
type Server struct {
	width, height int
	palette       string
	logger        *slog.Logger
	upgrader      websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	events chan fluid.PointerEvent
}

// NewServer returns a server for a width×height grid. A nil logger uses
// slog.Default.
func NewServer(width, height int, palette string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		width:   width,
		height:  height,
		palette: palette,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		events:  make(chan fluid.PointerEvent, 64),
	}
}

// Events delivers remote pointer samples already converted to grid
// coordinates. Samples are dropped while the channel is full.
func (s *Server) Events() <-chan fluid.PointerEvent { return s.events }

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	connMu.Lock()
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(Hello{Type: "hello", Width: s.width, Height: s.height, Palette: s.palette})
	connMu.Unlock()
	if err != nil {
		s.logger.Warn("websocket hello failed", slog.Any("err", err))
		return
	}
	s.logger.Info("stream client connected", slog.String("remote", r.RemoteAddr))

	for {
		var p Pointer
		if err := conn.ReadJSON(&p); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", slog.Any("err", err))
			}
			return
		}
		select {
		case s.events <- s.toGrid(p):
		default:
			s.logger.Debug("pointer event dropped", slog.String("remote", r.RemoteAddr))
		}
	}
}

// toGrid flips the vertical axis: screen row 0 is the top, grid row 0 the
// bottom.
func (s *Server) toGrid(p Pointer) fluid.PointerEvent {
	h := float64(s.height)
	return fluid.PointerEvent{X: p.X, Y: h - p.Y, PrevX: p.PrevX, PrevY: h - p.PrevY}
}

// Broadcast sends one RGBA frame to every client and returns how many
// received it. Clients that fail are disconnected.
func (s *Server) Broadcast(frame []byte) int {
	var failed []*websocket.Conn
	sent := 0
	s.clientsMu.RLock()
	for conn, mu := range s.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.BinaryMessage, frame)
		mu.Unlock()
		if err != nil {
			s.logger.Debug("websocket write failed", slog.Any("err", err))
			failed = append(failed, conn)
			continue
		}
		sent++
	}
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			conn.Close()
			delete(s.clients, conn)
		}
		s.clientsMu.Unlock()
	}
	return sent
}

// Close disconnects every client.
func (s *Server) Close() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn, mu := range s.clients {
		mu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		mu.Unlock()
		conn.Close()
		delete(s.clients, conn)
	}
}
