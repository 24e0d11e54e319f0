package tcp

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/vbmade2000/simple-chat/internal/chat"
)

// Server accepts TCP connections and runs one chat actor per connection.
type Server struct {
	address  string
	listener net.Listener
	registry *chat.Registry
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New creates a TCP server that registers users in the provided registry.
func New(address string, registry *chat.Registry) *Server {
	return &Server{
		address:  address,
		registry: registry,
		conns:    make(map[net.Conn]struct{}),
		quit:     make(chan struct{}),
	}
}

// Start starts accepting TCP connections. It blocks until Stop is called or
// the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.Printf("TCP server started on %s", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				log.Printf("Failed to accept TCP connection: %v", err)
				continue
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		actor := chat.NewActor(NewConn(conn), s.registry)
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
}

// Stop closes the listener and every open connection, then waits for all
// connection handlers to finish.
func (s *Server) Stop() {
	close(s.quit)
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
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
