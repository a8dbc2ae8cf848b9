package feedsim

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/stadu/pkg/logger"
	"github.com/okian/stadu/pkg/metrics"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGenerator replaces the generator built from the scenario.
func WithGenerator(g *Generator) Option {
	return func(s *Server) {
		if g != nil {
			s.gen = g
		}
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Server broadcasts generated events to every connected WebSocket client.
type Server struct {
	scenario Scenario
	gen      *Generator
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	sent    int
}

// NewServer creates a server for a validated scenario.
func NewServer(s Scenario, opts ...Option) *Server {
	srv := &Server{
		scenario: s,
		log:      logger.Get().Named("feedsim"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.gen == nil {
		srv.gen = NewGenerator(s)
	}
	return srv
}

// Handler upgrades requests and registers the connection as a client.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn(r.Context(), "upgrade failed", logger.Error(err))
			return
		}
		c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		s.add(c)
		s.log.Info(r.Context(), "client connected",
			logger.String("remote", r.RemoteAddr),
			logger.Int("clients", s.ClientCount()))

		go s.writeLoop(c)
		s.readLoop(c)
	})
}

// readLoop only drains control frames; it returns when the client goes away.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.remove(c)
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			metrics.RecordErrorByComponent("feedsim", "write")
			s.remove(c)
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed stopped"))
	_ = c.conn.Close()
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Sent returns how many payloads were broadcast.
func (s *Server) Sent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sent
}

// Broadcast queues msg for every client. A client whose buffer is full
// misses the message.
func (s *Server) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			metrics.RecordErrorByComponent("feedsim", "slow_client")
		}
	}
}

// Run emits events at the scenario rate until ctx ends or Count is reached.
// Clients are sent a going-away close frame on return.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.scenario.Interval())
	defer ticker.Stop()
	defer s.closeAll()

	s.log.Info(ctx, "feed started",
		logger.Float64("rate", s.scenario.Rate),
		logger.Int("count", s.scenario.Count))

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "feed stopped", logger.Int("sent", s.Sent()))
			return nil
		case <-ticker.C:
			if s.ClientCount() == 0 {
				continue
			}
			s.Broadcast(s.gen.NextPayload())
			if n := s.scenario.Count; n > 0 && s.Sent() >= n {
				s.log.Info(ctx, "feed complete", logger.Int("sent", n))
				return nil
			}
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}
