package socket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/bullsgame/internal/middleware"
)

// Config tunes websocket connections
type Config struct {
	MaxMessageSize int64
	PongWait       time.Duration
	PingInterval   time.Duration
	WriteWait      time.Duration
	RequestTimeout time.Duration
	SendBuffer     int

	// MessageRate and MessageBurst limit inbound requests per connection
	MessageRate  rate.Limit
	MessageBurst int
}

// DefaultConfig returns the standard connection settings
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 4096,
		PongWait:       60 * time.Second,
		PingInterval:   54 * time.Second,
		WriteWait:      10 * time.Second,
		RequestTimeout: 10 * time.Second,
		SendBuffer:     64,
		MessageRate:    20,
		MessageBurst:   40,
	}
}

// Server upgrades HTTP requests to websocket connections and runs them
type Server struct {
	rooms    Rooms
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	conns  map[*Conn]struct{}
	wg     sync.WaitGroup
}

// NewServer creates a websocket server handing out rooms from rooms
func NewServer(rooms Rooms, config Config, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		rooms:  rooms,
		config: config,
		logger: logger.With(slog.String("component", "socket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[*Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and starts the connection's pumps
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	// Connections share the request's id so access logs can be matched up
	id := middleware.RequestID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	logger := s.logger.With(slog.String("conn", id))
	c := &Conn{
		id:     id,
		ws:     ws,
		config: s.config,
		logger: logger,
		send:   make(chan []byte, s.config.SendBuffer),
		done:   make(chan struct{}),
	}
	limiter := rate.NewLimiter(s.config.MessageRate, s.config.MessageBurst)
	c.handler = NewHandler(s.rooms, c, limiter, logger)

	if !s.track(c) {
		c.Close()
		_ = ws.Close()
		return
	}
	logger.Info("connection opened", slog.String("remote", r.RemoteAddr))

	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		defer s.untrack(c)
		c.readPump(s.ctx)
	}()
}

// Count returns the number of open connections
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close disconnects every client and waits for their cleanup to finish
func (s *Server) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	s.cancel()
	for c := range conns {
		c.Close()
	}
	s.wg.Wait()
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(2)
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}
