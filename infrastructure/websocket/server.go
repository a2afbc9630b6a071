package websocket

import (
	"chat-rooms/domain/chat"
	"chat-rooms/services"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultWriteWait  = 10 * time.Second
	DefaultPongWait   = 60 * time.Second
	DefaultPingPeriod = (DefaultPongWait * 9) / 10
)

type Config struct {
	AllowedOrigins []string
	BufferSize     int
	MaxFrameSize   int64
	RatePerSecond  float64
	RateBurst      int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// Server upgrades HTTP requests on the chat endpoint and runs one session per connection.
type Server struct {
	log      *slog.Logger
	service  services.IChatService
	cfg      Config
	upgrader websocket.Upgrader
	origins  map[string]struct{}
	allowAll bool

	mu      sync.Mutex
	clients map[chat.ConnectionID]*Client
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewServer(log *slog.Logger, service services.IChatService, cfg Config) *Server {
	if cfg.WriteWait == 0 {
		cfg.WriteWait = DefaultWriteWait
	}
	if cfg.PongWait == 0 {
		cfg.PongWait = DefaultPongWait
	}
	if cfg.PingPeriod == 0 {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}
	origins, allowAll := normalizeOrigins(log, cfg.AllowedOrigins)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		log:      log,
		service:  service,
		cfg:      cfg,
		origins:  origins,
		allowAll: allowAll,
		clients:  make(map[chat.ConnectionID]*Client),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	connID := chat.ConnectionID(uuid.NewString())
	client := newClient(connID, conn, s.log, s.cfg)
	if !s.track(client) {
		client.Close()
		_ = conn.Close()
		return
	}
	defer s.untrack(connID)

	s.service.Connect(connID, client)
	session := NewSession(s.log, connID, s.service, client)
	s.log.Debug("Client connected", "connection_id", connID, "remote_addr", r.RemoteAddr)

	go client.writePump()
	client.readPump(s.ctx, session)
}

// Shutdown closes every live connection and waits for their sessions to end,
// or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	for _, client := range s.clients {
		client.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) track(client *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.clients[client.id] = client
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(connID chat.ConnectionID) {
	s.mu.Lock()
	delete(s.clients, connID)
	s.mu.Unlock()
	s.wg.Done()
}

// checkOrigin admits requests without an Origin header (non-browser clients)
// and browser requests from an allowed origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" || s.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}
	if _, exists := s.origins[normalized]; exists {
		return true
	}
	s.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", originHeader)
	return false
}

func normalizeOrigins(log *slog.Logger, origins []string) (map[string]struct{}, bool) {
	normalized := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			allowAll = true
			continue
		}
		value, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		normalized[value] = struct{}{}
	}
	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
