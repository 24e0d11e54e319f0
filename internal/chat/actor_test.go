package chat_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/vbmade2000/simple-chat/internal/chat"
)

// mockConn is a scripted chat.Conn: tests push inbound lines into in and
// observe written lines on out. Closing in simulates the peer disconnecting.
type mockConn struct {
	in   chan string
	out  chan string
	once sync.Once
	done chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		in:   make(chan string),
		out:  make(chan string, 64),
		done: make(chan struct{}),
	}
}

func (c *mockConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *mockConn) WriteLine(ctx context.Context, line string) error {
	select {
	case c.out <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *mockConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *mockConn) RemoteAddr() string {
	return "mock:0"
}

// expectLine waits for the next line written to the connection.
func expectLine(t *testing.T, c *mockConn) string {
	t.Helper()
	select {
	case line := <-c.out:
		return line
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for line from actor")
		return ""
	}
}

// expectSilence asserts no line is written within a short window.
func expectSilence(t *testing.T, c *mockConn) {
	t.Helper()
	select {
	case line := <-c.out:
		t.Fatalf("unexpected line from actor: %q", line)
	case <-time.After(50 * time.Millisecond):
	}
}

// startActor runs an actor for conn and returns a channel closed when its
// loop exits.
func startActor(t *testing.T, reg *chat.Registry, conn *mockConn) <-chan struct{} {
	t.Helper()
	actor := chat.NewActor(conn, reg)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		actor.Run(context.Background())
	}()
	return stopped
}

func waitStopped(t *testing.T, stopped <-chan struct{}) {
	t.Helper()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for actor to stop")
	}
}

func TestActor_Join(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<101> alice"
	if got := expectLine(t, conn); got != "<102> alice\n" {
		t.Errorf("join ack = %q, want %q", got, "<102> alice\n")
	}
	if !reg.Joined("alice") {
		t.Error("alice not in registry after join")
	}

	close(conn.in)
	waitStopped(t, stopped)
}

func TestActor_Join_Duplicate(t *testing.T) {
	reg := chat.NewRegistry()
	reg.TryJoin("alice", chat.NewMailbox(1))

	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<101> alice"
	if got := expectLine(t, conn); got != "<105>\n" {
		t.Errorf("duplicate reply = %q, want %q", got, "<105>\n")
	}
	if got := reg.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	// The rejected connection stays unjoined: messages are still gated.
	conn.in <- "<107> alice hello"
	if got := expectLine(t, conn); got != "Please join the chat first.\n" {
		t.Errorf("notice = %q, want join-first notice", got)
	}

	close(conn.in)
	waitStopped(t, stopped)
	if !reg.Joined("alice") {
		t.Error("original alice entry removed by rejected connection's teardown")
	}
}

func TestActor_Join_Twice(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<101> alice"
	expectLine(t, conn)

	conn.in <- "<101> bob"
	if got := expectLine(t, conn); got != "<106>\n" {
		t.Errorf("re-join reply = %q, want %q", got, "<106>\n")
	}
	if reg.Joined("bob") {
		t.Error("re-join mutated the registry")
	}
	if !reg.Joined("alice") {
		t.Error("original identity lost on re-join attempt")
	}

	close(conn.in)
	waitStopped(t, stopped)
}

func TestActor_MessageBeforeJoin(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<107> alice hello"
	if got := expectLine(t, conn); got != "Please join the chat first.\n" {
		t.Errorf("notice = %q, want join-first notice", got)
	}
	if got := reg.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}

	close(conn.in)
	waitStopped(t, stopped)
}

func TestActor_Broadcast(t *testing.T) {
	reg := chat.NewRegistry()

	alice := newMockConn()
	bob := newMockConn()
	aliceStopped := startActor(t, reg, alice)
	bobStopped := startActor(t, reg, bob)

	alice.in <- "<101> alice"
	expectLine(t, alice)
	bob.in <- "<101> bob"
	expectLine(t, bob)

	alice.in <- "<107> alice hello there"
	if got := expectLine(t, bob); got != "<107> alice hello there\n" {
		t.Errorf("bob received %q, want %q", got, "<107> alice hello there\n")
	}
	expectSilence(t, alice)

	close(alice.in)
	close(bob.in)
	waitStopped(t, aliceStopped)
	waitStopped(t, bobStopped)
}

func TestActor_Leave(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<101> alice"
	expectLine(t, conn)

	conn.in <- "<103> alice"
	waitStopped(t, stopped)

	if reg.Joined("alice") {
		t.Error("alice still in registry after leave")
	}
}

func TestActor_Leave_BeforeJoin(t *testing.T) {
	reg := chat.NewRegistry()
	reg.TryJoin("alice", chat.NewMailbox(1))

	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<103>"
	waitStopped(t, stopped)

	// An unjoined connection leaving must not disturb other entries.
	if !reg.Joined("alice") {
		t.Error("unrelated registry entry removed")
	}
}

func TestActor_AbruptDisconnectCleansRegistry(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "<101> alice"
	expectLine(t, conn)

	// Peer vanishes without a leave line.
	close(conn.in)
	waitStopped(t, stopped)

	if reg.Joined("alice") {
		t.Error("registry entry survived abrupt disconnect")
	}
}

func TestActor_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unbracketed text", "hello world"},
		{"unrecognized code", "<999> alice hi"},
		{"server-only kind", "<102> alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := chat.NewRegistry()
			conn := newMockConn()
			stopped := startActor(t, reg, conn)

			conn.in <- tt.line
			if got := expectLine(t, conn); got != "<106>\n" {
				t.Errorf("reply = %q, want %q", got, "<106>\n")
			}

			close(conn.in)
			waitStopped(t, stopped)
		})
	}
}

func TestActor_BlankLineSkipped(t *testing.T) {
	reg := chat.NewRegistry()
	conn := newMockConn()
	stopped := startActor(t, reg, conn)

	conn.in <- "   "
	expectSilence(t, conn)

	close(conn.in)
	waitStopped(t, stopped)
}
