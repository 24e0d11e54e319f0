package ws

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"

	"github.com/vbmade2000/simple-chat/internal/chat"
)

// Server accepts WebSocket connections and runs one chat actor per
// connection. It shares a registry with the TCP server, so TCP and
// WebSocket users see each other.
type Server struct {
	address  string
	listener net.Listener
	server   *http.Server
	registry *chat.Registry
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// New creates a WebSocket server that registers users in the provided
// registry.
func New(address string, registry *chat.Registry) *Server {
	return &Server{
		address:  address,
		registry: registry,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start starts accepting WebSocket connections. It blocks until Stop is
// called or the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start WebSocket server: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	s.mu.Lock()
	s.listener = listener
	s.server = &http.Server{Handler: mux}
	s.mu.Unlock()

	log.Printf("WebSocket server started on %s", listener.Addr().String())

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("WebSocket server failed: %w", err)
	}
	return nil
}

// Stop closes the HTTP server and every upgraded connection, then waits for
// all connection handlers to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.server != nil {
		s.server.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleUpgrade hijacks the HTTP connection into a WebSocket and hands it to
// a chat actor. Upgraded connections are tracked here because the HTTP
// server no longer owns them after the hijack.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	actor := chat.NewActor(NewConn(conn, r.RemoteAddr), s.registry)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
		actor.Run(context.Background())
	}()
}
