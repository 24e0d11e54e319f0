package chat

import (
	"log"
	"sync"

	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

// Registry is the single source of truth for who is currently joined and the
// mailbox to reach them. All connection actors share one Registry instance.
type Registry struct {
	mu    sync.Mutex
	users map[string]*Mailbox
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Mailbox),
	}
}

// TryJoin inserts username if it is not already present. The check and the
// insert happen under one lock, so two racing joins with the same name yield
// exactly one success. It reports false without mutating state when the name
// is taken.
func (r *Registry) TryJoin(username string, mailbox *Mailbox) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[username]; exists {
		return false
	}
	r.users[username] = mailbox
	return true
}

// Leave removes username from the registry. It is a no-op if the name was
// never joined or has already left.
func (r *Registry) Leave(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

// Broadcast sends a user message from the named sender to every joined user
// except the sender. Delivery is best effort: a full or closed mailbox drops
// the message for that one recipient and never blocks the sender or delays
// the remaining recipients.
func (r *Registry) Broadcast(from, payload string) {
	msg := protocol.Message{
		Kind:     protocol.KindUserMessage,
		Username: from,
		Payload:  payload,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for username, mailbox := range r.users {
		if username == from {
			continue
		}
		if !mailbox.TrySend(msg) {
			log.Printf("Mailbox for %s full or closed, dropping message", username)
		}
	}
}

// Joined reports whether username is currently in the registry.
func (r *Registry) Joined(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok
}

// Count returns the number of joined users.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
