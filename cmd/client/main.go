package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/vbmade2000/simple-chat/internal/client"
	"github.com/vbmade2000/simple-chat/pkg/protocol"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	username := flag.String("username", "", "Username for chat (required, must be unique)")
	host := flag.String("host", "", "Server host (default 127.0.0.1, env SIMPLE_CHAT_SERVER_HOST)")
	port := flag.String("port", "", "Server port (default 8090, env SIMPLE_CHAT_SERVER_PORT)")
	flag.Parse()

	if *username == "" {
		log.Fatal("Username is required. Use -username flag")
	}

	addr := net.JoinHostPort(
		firstNonEmpty(*host, os.Getenv("SIMPLE_CHAT_SERVER_HOST"), "127.0.0.1"),
		firstNonEmpty(*port, os.Getenv("SIMPLE_CHAT_SERVER_PORT"), "8090"),
	)

	c := client.New(addr, *username)
	if err := c.Connect(); err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer c.Disconnect()

	if err := c.Join(); err != nil {
		if errors.Is(err, client.ErrDuplicateUser) {
			log.Fatal("Username already in use. Please try again with a different username.")
		}
		log.Fatalf("Failed to join chat: %v", err)
	}

	log.Printf("Joined %s as %s", addr, *username)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		printMessages(c.Messages())
	}()
	go func() {
		defer wg.Done()
		for notice := range c.Notices() {
			fmt.Println(notice)
		}
	}()

	runConsole(c)

	c.Disconnect()
	wg.Wait()
	log.Println("Disconnected from server")
}

func printMessages(messages <-chan protocol.Message) {
	for msg := range messages {
		switch msg.Kind {
		case protocol.KindUserMessage:
			fmt.Printf("%s> %s\n", msg.Username, msg.Payload)
		case protocol.KindInvalidCmd:
			fmt.Println("ERROR: server rejected the last command")
		}
	}
}

// runConsole reads console commands until the user leaves or stdin closes.
// Recognized commands: "send <text>" and "leave"; anything else is ignored.
func runConsole(c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		command, rest, _ := strings.Cut(input, " ")
		switch strings.ToLower(command) {
		case "send":
			if err := c.Send(rest); err != nil {
				log.Printf("Failed to send message: %v", err)
				return
			}
		case "leave":
			if err := c.Leave(); err != nil {
				log.Printf("Failed to send leave request: %v", err)
			}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}
}
