package chat

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

// joinFirstNotice is the plain-text line sent to a connection that tries to
// send a message before joining. It is deliberately not a protocol message;
// clients surface unparseable lines verbatim as server notices.
const joinFirstNotice = "Please join the chat first.\n"

// Actor owns one connection end to end: the socket, a private mailbox, and
// the protocol state machine. It is the only component that writes to its
// own connection. An actor holds at most one username, acquired exactly once
// per connection lifetime.
type Actor struct {
	id       string
	conn     Conn
	registry *Registry
	mailbox  *Mailbox
	username string // empty until a join succeeds
}

// NewActor creates an actor for conn with a mailbox of DefaultMailboxSize.
func NewActor(conn Conn, registry *Registry) *Actor {
	return &Actor{
		id:       uuid.NewString(),
		conn:     conn,
		registry: registry,
		mailbox:  NewMailbox(DefaultMailboxSize),
	}
}

type readResult struct {
	line string
	err  error
}

// Run drives the connection until the peer leaves, disconnects, or an I/O
// error occurs. It races inbound socket lines against the mailbox so that
// neither source can starve the other.
//
// Teardown always removes the registry entry, closes the mailbox, and closes
// the connection, regardless of how the loop exited.
func (a *Actor) Run(ctx context.Context) {
	defer a.teardown()

	log.Printf("[%s] Connection from %s", a.id, a.conn.RemoteAddr())

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan readResult)
	go a.readLines(rctx, lines)

	for {
		select {
		case res := <-lines:
			if res.err != nil {
				if res.err != io.EOF && !errors.Is(res.err, context.Canceled) {
					log.Printf("[%s] Read error: %v", a.id, res.err)
				} else {
					log.Printf("[%s] Connection closed by peer", a.id)
				}
				return
			}
			if terminate := a.handleLine(ctx, res.line); terminate {
				return
			}
		case msg := <-a.mailbox.Receive():
			if err := a.conn.WriteLine(ctx, msg.Encode()); err != nil {
				log.Printf("[%s] Write error: %v", a.id, err)
				return
			}
		case <-a.mailbox.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLines feeds inbound lines into out until the connection or ctx ends.
func (a *Actor) readLines(ctx context.Context, out chan<- readResult) {
	for {
		line, err := a.conn.ReadLine(ctx)
		select {
		case out <- readResult{line: line, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// handleLine decodes one inbound line and dispatches it against the state
// machine. It reports true when the loop should terminate, either because of
// an explicit leave or because a write to the peer failed.
func (a *Actor) handleLine(ctx context.Context, line string) bool {
	msg, err := protocol.ParseLine(line)
	if err != nil {
		if errors.Is(err, protocol.ErrEmpty) {
			return false
		}
		log.Printf("[%s] Invalid command received: %q", a.id, line)
		return !a.reply(ctx, protocol.Message{Kind: protocol.KindInvalidCmd})
	}

	switch msg.Kind {
	case protocol.KindJoinRequest:
		return !a.handleJoin(ctx, msg.Username)
	case protocol.KindLeaveRequest:
		a.handleLeave()
		return true
	case protocol.KindUserMessage:
		return !a.handleUserMessage(ctx, msg.Payload)
	default:
		// Recognized code but not valid client-to-server traffic.
		log.Printf("[%s] Unexpected %s from client", a.id, msg.Kind)
		return !a.reply(ctx, protocol.Message{Kind: protocol.KindInvalidCmd})
	}
}

// handleJoin attempts the unjoined-to-joined transition. A connection may
// join at most once; later join requests are rejected without touching the
// registry.
func (a *Actor) handleJoin(ctx context.Context, username string) bool {
	if a.username != "" || username == "" {
		return a.reply(ctx, protocol.Message{Kind: protocol.KindInvalidCmd})
	}

	if !a.registry.TryJoin(username, a.mailbox) {
		log.Printf("[%s] Duplicate username received: %s", a.id, username)
		return a.reply(ctx, protocol.Message{Kind: protocol.KindDuplicateUser})
	}

	a.username = username
	log.Printf("[%s] User %s joined", a.id, username)
	return a.reply(ctx, protocol.Message{Kind: protocol.KindJoinAck, Username: username})
}

func (a *Actor) handleLeave() {
	if a.username != "" {
		a.registry.Leave(a.username)
		log.Printf("[%s] User %s left", a.id, a.username)
	}
	a.mailbox.Close()
}

// handleUserMessage fans the payload out to every other joined user. An
// unjoined connection is told to join first and never reaches the registry.
func (a *Actor) handleUserMessage(ctx context.Context, payload string) bool {
	if a.username == "" {
		log.Printf("[%s] Message before join from %s", a.id, a.conn.RemoteAddr())
		if err := a.conn.WriteLine(ctx, joinFirstNotice); err != nil {
			log.Printf("[%s] Write error: %v", a.id, err)
			return false
		}
		return true
	}
	a.registry.Broadcast(a.username, payload)
	return true
}

// reply writes one protocol message back to the peer. It reports false when
// the write failed; the connection is then considered unrecoverable.
func (a *Actor) reply(ctx context.Context, msg protocol.Message) bool {
	if err := a.conn.WriteLine(ctx, msg.Encode()); err != nil {
		log.Printf("[%s] Write error: %v", a.id, err)
		return false
	}
	return true
}

func (a *Actor) teardown() {
	if a.username != "" {
		a.registry.Leave(a.username)
	}
	a.mailbox.Close()
	a.conn.Close()
	log.Printf("[%s] Connection handler stopped", a.id)
}
