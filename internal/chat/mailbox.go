package chat

import (
	"sync"

	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

// DefaultMailboxSize is the number of pending outbound messages a connection
// may accumulate before broadcasts to it start being dropped.
const DefaultMailboxSize = 1000

// Mailbox is a bounded queue of outbound messages for one connection. Any
// actor may send into it through the registry; only the owning actor drains
// it. Sends are non-blocking: a full or closed mailbox drops the message.
type Mailbox struct {
	ch   chan protocol.Message
	done chan struct{}
	once sync.Once
}

// NewMailbox creates a mailbox with the given capacity.
func NewMailbox(capacity int) *Mailbox {
	return &Mailbox{
		ch:   make(chan protocol.Message, capacity),
		done: make(chan struct{}),
	}
}

// TrySend enqueues msg without blocking. It reports false when the mailbox
// is full or already closed; the message is dropped in either case.
func (m *Mailbox) TrySend(msg protocol.Message) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.ch <- msg:
		return true
	default:
		return false
	}
}

// Receive returns the channel the owning actor drains.
func (m *Mailbox) Receive() <-chan protocol.Message {
	return m.ch
}

// Done is closed once the mailbox no longer accepts sends.
func (m *Mailbox) Done() <-chan struct{} {
	return m.done
}

// Close stops the mailbox from accepting further sends. It is idempotent
// and safe to call concurrently with TrySend; the message channel itself is
// never closed so senders cannot panic.
func (m *Mailbox) Close() {
	m.once.Do(func() {
		close(m.done)
	})
}
