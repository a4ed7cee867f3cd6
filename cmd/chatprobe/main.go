// Command chatprobe exercises the realtime websocket endpoint under load:
// it logs in, fans out ticket-authenticated connections, subscribes them to
// a conversation and sends typing frames while counting delivered events.
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
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type metrics struct {
	connectionsAttempted int64
	connectionsSuccess   int64
	connectionsFailed    int64
	framesSent           int64
	eventsReceived       int64
	errors               int64
}

var m metrics

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	email := flag.String("email", "demo@example.com", "User email")
	password := flag.String("password", "password123", "User password")
	conversation := flag.Uint("conversation", 1, "Conversation id to subscribe to")
	clients := flag.Int("clients", 25, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	flag.Parse()

	log.Printf("probing ws://%s with %d clients for %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, uint(*conversation), stopChan, &wg)
		// Stagger connections so each gets its own single-use ticket.
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("probe duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stopChan)
	wg.Wait()
	printMetrics()
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewBuffer(body))
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

func getTicket(host, token string) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runClient(host, token string, conversationID uint, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&m.connectionsAttempted, 1)

	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&m.connectionsFailed, 1)
		atomic.AddInt64(&m.errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + ticket}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&m.connectionsFailed, 1)
		atomic.AddInt64(&m.errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&m.connectionsSuccess, 1)

	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&m.eventsReceived, 1)
		}
	}()

	subscribe := map[string]any{"type": "subscribe_conversation", "conversation_id": conversationID}
	if err := c.WriteJSON(subscribe); err != nil {
		atomic.AddInt64(&m.errors, 1)
		return
	}
	atomic.AddInt64(&m.framesSent, 1)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	typing := true
	for {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			frame := map[string]any{
				"type":            "typing",
				"conversation_id": conversationID,
				"is_typing":       typing,
			}
			typing = !typing
			if err := c.WriteJSON(frame); err != nil {
				atomic.AddInt64(&m.errors, 1)
				return
			}
			atomic.AddInt64(&m.framesSent, 1)
		}
	}
}

func printMetrics() {
	log.Println("probe results")
	log.Printf("connections attempted:  %d", atomic.LoadInt64(&m.connectionsAttempted))
	log.Printf("connections successful: %d", atomic.LoadInt64(&m.connectionsSuccess))
	log.Printf("connections failed:     %d", atomic.LoadInt64(&m.connectionsFailed))
	log.Printf("frames sent:            %d", atomic.LoadInt64(&m.framesSent))
	log.Printf("events received:        %d", atomic.LoadInt64(&m.eventsReceived))
	log.Printf("errors:                 %d", atomic.LoadInt64(&m.errors))
}
