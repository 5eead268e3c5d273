// Command main tails the realtime feed event stream of a running
// Feedhub server. Handy for checking that create/update/delete events
// actually reach connected clients.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8460", "API server host")
	email := flag.String("email", "demo@example.com", "User email")
	password := flag.String("password", "password123", "User password")
	raw := flag.Bool("raw", false, "Print raw frames instead of summaries")
	flag.Parse()

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws/feed", RawQuery: "token=" + token}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("WebSocket dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	log.Printf("Connected to %s, waiting for events (Ctrl-C to stop)", u.String())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			printEvent(message, *raw)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Closing connection...")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(payload)) // #nosec G107 -- operator-supplied host
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func printEvent(message []byte, raw bool) {
	if raw {
		fmt.Println(string(message))
		return
	}

	var event struct {
		Action string          `json:"action"`
		Type   string          `json:"type"`
		Post   json.RawMessage `json:"post"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		fmt.Println(string(message))
		return
	}

	switch {
	case event.Action != "":
		log.Printf("[%s] %s", event.Action, compactPost(event.Post))
	case event.Type != "":
		log.Printf("[%s] %s", event.Type, string(message))
	default:
		fmt.Println(string(message))
	}
}

func compactPost(payload json.RawMessage) string {
	var post struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &post); err == nil && post.ID != 0 {
		if post.Title != "" {
			return fmt.Sprintf("post %d %q", post.ID, post.Title)
		}
		return fmt.Sprintf("post %d", post.ID)
	}
	// delete events carry just the post ID
	var id uint
	if err := json.Unmarshal(payload, &id); err == nil {
		return fmt.Sprintf("post %d", id)
	}
	return string(payload)
}
