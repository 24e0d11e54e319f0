// Package client provides the TCP chat client session: joining, sending,
// and draining server traffic into channels for a console UI.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

// ErrDuplicateUser is returned by Join when the server rejects the username.
var ErrDuplicateUser = errors.New("client: username already taken")

// Client represents a TCP chat client.
type Client struct {
	address  string
	username string
	conn     net.Conn
	reader   *bufio.Reader
	messages chan protocol.Message
	notices  chan string
	wg       sync.WaitGroup
}

// New creates a new Client instance.
func New(address, username string) *Client {
	return &Client{
		address:  address,
		username: username,
		messages: make(chan protocol.Message, 10),
		notices:  make(chan string, 10),
	}
}

// Connect establishes a connection to the server.
func (c *Client) Connect() error {
	conn, err := net.Dial("tcp", c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Chat lines are tiny; send them immediately.
		tc.SetNoDelay(true)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Join announces the username and waits for the server's verdict. On success
// it starts the background receive loop feeding Messages and Notices.
// A taken username yields ErrDuplicateUser.
func (c *Client) Join() error {
	join := protocol.Message{Kind: protocol.KindJoinRequest, Username: c.username}
	if _, err := c.conn.Write([]byte(join.Encode())); err != nil {
		return fmt.Errorf("failed to send join request: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read join reply: %w", err)
	}

	msg, err := protocol.ParseLine(line)
	if err != nil {
		return fmt.Errorf("unexpected join reply %q: %w", strings.TrimSpace(line), err)
	}
	switch msg.Kind {
	case protocol.KindJoinAck:
	case protocol.KindDuplicateUser:
		return ErrDuplicateUser
	default:
		return fmt.Errorf("unexpected join reply kind %s", msg.Kind)
	}

	c.wg.Add(1)
	go c.receiveLines()
	return nil
}

// Send broadcasts a text message to the room.
func (c *Client) Send(text string) error {
	msg := protocol.Message{
		Kind:     protocol.KindUserMessage,
		Username: c.username,
		Payload:  text,
	}
	if _, err := c.conn.Write([]byte(msg.Encode())); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Leave tells the server this user is leaving the room.
func (c *Client) Leave() error {
	msg := protocol.Message{Kind: protocol.KindLeaveRequest, Username: c.username}
	if _, err := c.conn.Write([]byte(msg.Encode())); err != nil {
		return fmt.Errorf("failed to send leave request: %w", err)
	}
	return nil
}

// Disconnect closes the connection and waits for the receive loop to drain.
func (c *Client) Disconnect() {
	if c.conn != nil {
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
// protocol messages, such as the join-first notice.
func (c *Client) Notices() <-chan string {
	return c.notices
}

// receiveLines pumps server lines into the message and notice channels until
// the connection closes.
func (c *Client) receiveLines() {
	defer c.wg.Done()
	defer close(c.messages)
	defer close(c.notices)

	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return
		}

		msg, err := protocol.ParseLine(line)
		if err != nil {
			if errors.Is(err, protocol.ErrEmpty) {
				continue
			}
			// Not a protocol line; surface it verbatim as a notice.
			select {
			case c.notices <- strings.TrimRight(line, "\r\n"):
			default:
				log.Printf("Notice channel full, dropping: %q", line)
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
