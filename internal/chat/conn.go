// Package chat provides the core chat domain logic shared by all transports:
// the user registry, the per-connection mailbox, and the connection actor
// that runs the protocol state machine.
package chat

import "context"

// Conn abstracts a line-oriented bidirectional connection for both TCP and
// WebSocket. This interface isolates transport details from chat logic.
type Conn interface {
	// ReadLine reads a single protocol line with its terminator stripped.
	// Returns io.EOF when the peer closes the connection.
	ReadLine(ctx context.Context) (string, error)

	// WriteLine sends a single newline-terminated protocol line.
	WriteLine(ctx context.Context, line string) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
