package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"freshr-backend/internal/models"
)

type staticTokens map[string]uuid.UUID

func (s staticTokens) ParseToken(tokenStr string) (uuid.UUID, string, error) {
	id, ok := s[tokenStr]
	if !ok {
		return uuid.Nil, "", errors.New("invalid token")
	}
	return id, "", nil
}

func newTestHub(tokens staticTokens) *Hub {
	// Nothing listens here; subscriptions simply never deliver.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	return NewHub(rdb, tokens)
}

func TestHandleWebSocket_RejectsBadTokens(t *testing.T) {
	hub := newTestHub(staticTokens{})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	for _, query := range []string{"", "?token=nope"} {
		resp, err := http.Get(srv.URL + query)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got %d", query, resp.StatusCode)
		}
	}
}

func TestSendToUser(t *testing.T) {
	userID := uuid.New()
	hub := newTestHub(staticTokens{"good": userID})
	defer hub.Shutdown()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.connections[userID])
		hub.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("connection was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sessionID := uuid.New()
	hub.SendToUser(userID, models.WSMessage{
		Type:    "session_completed",
		Payload: models.SessionEvent{SessionID: sessionID},
	})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type    string              `json:"type"`
		Payload models.SessionEvent `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "session_completed" || msg.Payload.SessionID != sessionID {
		t.Errorf("unexpected message %s", data)
	}
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2f0e-8d7b-4a43-9d55-1f2a3b4c5d6e")
	if got := Channel(id); got != "user_updates:6f1c2f0e-8d7b-4a43-9d55-1f2a3b4c5d6e" {
		t.Errorf("Channel = %q", got)
	}
}
