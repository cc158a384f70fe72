// Command rahallah-cli is an interactive terminal client for the assistant's
// realtime channel. It mirrors server-pushed state locally and prints each
// completed turn.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/mirror"
	"github.com/Salehnexta/Rahallah10.13/internal/protocol"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket server address")
	sessionID := flag.String("session", "", "session ID to resume (optional)")
	apiKey := flag.String("api-key", "", "API key (optional)")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		log.Fatalf("Invalid address: %v", err)
	}
	q := u.Query()
	if *sessionID != "" {
		q.Set("session_id", *sessionID)
	}
	if *apiKey != "" {
		q.Set("api_key", *apiKey)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	state := mirror.New()
	done := make(chan struct{})

	go readLoop(conn, state, done)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	fmt.Println("Connected. Type a message and press enter (ctrl-c to quit).")

	for {
		select {
		case <-done:
			fmt.Println("Connection closed.")
			return
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-input:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			send(conn, state.SessionID, line)
		}
	}
}

func send(conn *websocket.Conn, sessionID, content string) {
	msg := protocol.MessageEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeMessage,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Failed to send: %v", err)
	}
}

func readLoop(conn *websocket.Conn, state *mirror.Mirror, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		eventType, applied, err := state.Apply(data)
		if err != nil {
			log.Printf("Skipping event: %v", err)
			continue
		}
		if !applied {
			continue
		}

		switch eventType {
		case protocol.TypeInitialState:
			fmt.Printf("-- session %s (%s, %d turns) --\n",
				state.SessionID, state.Language, len(state.Turns))
			for _, t := range state.Turns {
				printTurn(t)
			}
		case protocol.TypeResponse:
			printTurn(state.Turns[len(state.Turns)-1])
		case protocol.TypeSessionReset:
			fmt.Println("-- session reset --")
		case protocol.TypeError:
			fmt.Printf("[error] %s\n", state.LastError.Message)
		}
	}
}

func printTurn(t domain.Turn) {
	prefix := "you"
	if t.Role == domain.RoleAssistant {
		prefix = "assistant"
		if t.Intent != "" && t.Intent != domain.IntentContinue {
			prefix = "assistant/" + string(t.Intent)
		}
	}
	if t.IsError {
		prefix += "!"
	}
	fmt.Printf("%s> %s\n", prefix, t.Content)
}
