// Package ws provides the WebSocket transport for the chat server, carrying
// one protocol line per text frame.
package ws

import (
	"context"
	"net"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn adapts an upgraded WebSocket connection to the chat.Conn interface.
// Frames carry lines without the trailing newline.
type Conn struct {
	conn       net.Conn
	remoteAddr string
}

// NewConn wraps an upgraded connection, keeping the HTTP-level remote
// address for logging.
func NewConn(conn net.Conn, remoteAddr string) *Conn {
	return &Conn{conn: conn, remoteAddr: remoteAddr}
}

// ReadLine implements chat.Conn. One text frame is one protocol line.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	data, err := wsutil.ReadClientText(c.conn)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// WriteLine implements chat.Conn. The newline terminator is stripped before
// framing.
func (c *Conn) WriteLine(ctx context.Context, line string) error {
	return wsutil.WriteServerText(c.conn, []byte(strings.TrimRight(line, "\r\n")))
}

// Close implements chat.Conn. A close frame is sent on a best-effort basis.
func (c *Conn) Close() error {
	_ = wsutil.WriteServerMessage(c.conn, ws.OpClose, nil)
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}
