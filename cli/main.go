// Package main provides a terminal client for the document chat WebSocket.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/transport/ws"
)

// Client holds one chat connection and the transcript sent with every question.
type Client struct {
	conn       *websocket.Conn
	docID      string
	transcript []domain.ChatTurn
	timeout    time.Duration
}

// NewClient connects to addr, authenticating with token when it is set.
func NewClient(addr, token, docID string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(addr, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn:    conn,
		docID:   docID,
		timeout: 60 * time.Second,
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Ask sends question with the running transcript and waits for the answer.
// Only answered exchanges are kept in the transcript.
func (c *Client) Ask(question string) (string, error) {
	turns := append(append([]domain.ChatTurn{}, c.transcript...),
		domain.ChatTurn{Role: domain.RoleUser, Content: question})

	requestID := "req_" + uuid.New().String()[:8]
	msg := ws.ChatMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeChat,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
		},
		Messages: turns,
		DocID:    c.docID,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return "", fmt.Errorf("write chat: %w", err)
	}

	var answer strings.Builder
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		if base.RequestID != "" && base.RequestID != requestID {
			continue
		}

		switch base.Type {
		case ws.TypeDelta:
			var delta ws.DeltaMessage
			if err := json.Unmarshal(data, &delta); err != nil {
				return "", fmt.Errorf("unmarshal delta: %w", err)
			}
			answer.WriteString(delta.Text)
		case ws.TypeDone:
			c.transcript = append(turns, domain.ChatTurn{Role: domain.RoleAssistant, Content: answer.String()})
			return answer.String(), nil
		case ws.TypeError:
			var errMsg ws.ErrorMessage
			json.Unmarshal(data, &errMsg)
			return "", fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		default:
			return "", errors.New("unexpected message type: " + base.Type)
		}
	}
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/api/chat/ws", "WebSocket server address")
	token := flag.String("token", os.Getenv("DOCCHAT_TOKEN"), "session token")
	docID := flag.String("doc", "", "document to chat about")
	flag.Parse()

	log.SetFlags(log.Ltime)

	if *docID == "" {
		log.Fatalf("-doc is required")
	}

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr, *token, *docID)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Printf("Chatting about document %s\n", *docID)
	fmt.Println("\nType a question and press Enter to send.")
	fmt.Println("Commands: /quit to exit")

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		client.Close()
		os.Exit(0)
	}()

	// Read user input
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if input == "/quit" {
			fmt.Println("Bye!")
			return
		}

		answer, err := client.Ask(input)
		if err != nil {
			log.Printf("Chat error: %v", err)
			continue
		}
		fmt.Println(answer)
	}
}
