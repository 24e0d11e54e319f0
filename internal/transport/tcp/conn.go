// Package tcp provides the TCP transport for the chat server.
package tcp

import (
	"bufio"
	"context"
	"net"
	"strings"
)

// Conn adapts net.Conn to the chat.Conn interface using a buffered
// newline-delimited reader.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// ReadLine implements chat.Conn. It blocks until a full line arrives and
// returns it with the trailing newline stripped.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine implements chat.Conn. The line is expected to carry its own
// newline terminator.
func (c *Conn) WriteLine(ctx context.Context, line string) error {
	_, err := c.conn.Write([]byte(line))
	return err
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
