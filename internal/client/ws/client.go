// Package ws provides the WebSocket chat client session, mirroring the TCP
// client over gobwas/ws text frames.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	gws "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/vbmade2000/simple-chat/internal/client"
	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

// Client represents a WebSocket chat client. One text frame carries one
// protocol line without its newline terminator.
type Client struct {
	url      string
	username string
	conn     net.Conn
	messages chan protocol.Message
	notices  chan string
	wg       sync.WaitGroup
}

// New creates a new Client for a ws:// URL.
func New(url, username string) *Client {
	return &Client{
		url:      url,
		username: username,
		messages: make(chan protocol.Message, 10),
		notices:  make(chan string, 10),
	}
}

// Connect dials and upgrades the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, _, err := gws.Dial(ctx, c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	c.conn = conn
	return nil
}

// Join announces the username and waits for the server's verdict, then
// starts the background receive loop. A taken username yields
// client.ErrDuplicateUser.
func (c *Client) Join() error {
	join := protocol.Message{Kind: protocol.KindJoinRequest, Username: c.username}
	if err := c.writeLine(join.Encode()); err != nil {
		return fmt.Errorf("failed to send join request: %w", err)
	}

	data, err := wsutil.ReadServerText(c.conn)
	if err != nil {
		return fmt.Errorf("failed to read join reply: %w", err)
	}

	msg, err := protocol.ParseLine(string(data))
	if err != nil {
		return fmt.Errorf("unexpected join reply %q: %w", data, err)
	}
	switch msg.Kind {
	case protocol.KindJoinAck:
	case protocol.KindDuplicateUser:
		return client.ErrDuplicateUser
	default:
		return fmt.Errorf("unexpected join reply kind %s", msg.Kind)
	}

	c.wg.Add(1)
	go c.receiveFrames()
	return nil
}

// Send broadcasts a text message to the room.
func (c *Client) Send(text string) error {
	msg := protocol.Message{
		Kind:     protocol.KindUserMessage,
		Username: c.username,
		Payload:  text,
	}
	if err := c.writeLine(msg.Encode()); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Leave tells the server this user is leaving the room.
func (c *Client) Leave() error {
	msg := protocol.Message{Kind: protocol.KindLeaveRequest, Username: c.username}
	if err := c.writeLine(msg.Encode()); err != nil {
		return fmt.Errorf("failed to send leave request: %w", err)
	}
	return nil
}

// Disconnect closes the connection and waits for the receive loop to drain.
func (c *Client) Disconnect() {
	if c.conn != nil {
		_ = wsutil.WriteClientMessage(c.conn, gws.OpClose, nil)
		c.conn.Close()
	}
	c.wg.Wait()
}

// Messages returns the channel of decoded server messages. It is closed when
// the connection ends.
func (c *Client) Messages() <-chan protocol.Message {
	return c.messages
}

// Notices returns the channel of plain-text server lines that are not
// protocol messages.
func (c *Client) Notices() <-chan string {
	return c.notices
}

func (c *Client) writeLine(line string) error {
	return wsutil.WriteClientText(c.conn, []byte(strings.TrimRight(line, "\r\n")))
}

func (c *Client) receiveFrames() {
	defer c.wg.Done()
	defer close(c.messages)
	defer close(c.notices)

	for {
		data, err := wsutil.ReadServerText(c.conn)
		if err != nil {
			return
		}

		msg, err := protocol.ParseLine(string(data))
		if err != nil {
			if errors.Is(err, protocol.ErrEmpty) {
				continue
			}
			select {
			case c.notices <- strings.TrimRight(string(data), "\r\n"):
			default:
				log.Printf("Notice channel full, dropping: %q", data)
			}
			continue
		}

		select {
		case c.messages <- msg:
		default:
			log.Printf("Message channel full, dropping %s from %s", msg.Kind, msg.Username)
		}
	}
}
