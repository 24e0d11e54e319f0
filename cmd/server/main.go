package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbmade2000/simple-chat/internal/chat"
	"github.com/vbmade2000/simple-chat/internal/transport/tcp"
	"github.com/vbmade2000/simple-chat/internal/transport/ws"
)

// firstNonEmpty lets CLI flags take precedence over environment variables,
// which in turn take precedence over built-in defaults.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	ip := flag.String("ip", "", "Address to bind (default 127.0.0.1, env SIMPLE_CHAT_SERVER_HOST)")
	port := flag.String("port", "", "Port to listen on (default 8090, env SIMPLE_CHAT_SERVER_PORT)")
	wsPort := flag.String("ws-port", "", "Optional port for WebSocket clients (disabled when empty)")
	flag.Parse()

	host := firstNonEmpty(*ip, os.Getenv("SIMPLE_CHAT_SERVER_HOST"), "127.0.0.1")
	tcpPort := firstNonEmpty(*port, os.Getenv("SIMPLE_CHAT_SERVER_PORT"), "8090")

	registry := chat.NewRegistry()
	tcpSrv := tcp.New(net.JoinHostPort(host, tcpPort), registry)

	errChan := make(chan error, 2)
	go func() {
		errChan <- tcpSrv.Start()
	}()

	var wsSrv *ws.Server
	if *wsPort != "" {
		wsSrv = ws.New(net.JoinHostPort(host, *wsPort), registry)
		go func() {
			errChan <- wsSrv.Start()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		tcpSrv.Stop()
		if wsSrv != nil {
			wsSrv.Stop()
		}
	}

	log.Println("Server stopped")
}
