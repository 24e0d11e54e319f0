package ws_test

import (
	"context"
	"net"
	"testing"
	"time"

	gws "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/vbmade2000/simple-chat/internal/chat"
	"github.com/vbmade2000/simple-chat/internal/transport/ws"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ chat.Conn = (*ws.Conn)(nil)
}

func dialTest(t *testing.T, addr string) *wsClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	conn, _, _, err := gws.Dial(ctx, "ws://"+addr+"/")
	if err != nil {
		t.Fatalf("failed to dial WebSocket server: %v", err)
	}
	return &wsClient{t: t, conn: conn}
}

type wsClient struct {
	t    *testing.T
	conn net.Conn
}

func (c *wsClient) send(line string) {
	c.t.Helper()
	if err := wsutil.WriteClientText(c.conn, []byte(line)); err != nil {
		c.t.Fatalf("failed to write frame: %v", err)
	}
}

func (c *wsClient) recv() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(time.Second))
	data, err := wsutil.ReadServerText(c.conn)
	if err != nil {
		c.t.Fatalf("failed to read frame: %v", err)
	}
	return string(data)
}

func TestServer_JoinOverWebSocket(t *testing.T) {
	reg := chat.NewRegistry()
	srv := ws.New(":0", reg)

	go srv.Start()
	defer srv.Stop()

	time.Sleep(100 * time.Millisecond)

	client := dialTest(t, srv.Addr())
	defer client.conn.Close()

	client.send("<101> alice")
	if got := client.recv(); got != "<102> alice" {
		t.Errorf("ack = %q, want %q", got, "<102> alice")
	}
	if !reg.Joined("alice") {
		t.Error("alice not in registry after WebSocket join")
	}
}

func TestServer_BroadcastOverWebSocket(t *testing.T) {
	reg := chat.NewRegistry()
	srv := ws.New(":0", reg)

	go srv.Start()
	defer srv.Stop()

	time.Sleep(100 * time.Millisecond)

	alice := dialTest(t, srv.Addr())
	defer alice.conn.Close()
	bob := dialTest(t, srv.Addr())
	defer bob.conn.Close()

	alice.send("<101> alice")
	alice.recv()
	bob.send("<101> bob")
	bob.recv()

	alice.send("<107> alice hello there")
	if got := bob.recv(); got != "<107> alice hello there" {
		t.Errorf("bob received %q, want %q", got, "<107> alice hello there")
	}
}
