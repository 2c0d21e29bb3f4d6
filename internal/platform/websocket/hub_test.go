package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestHub_RegisterAndCount(t *testing.T) {
	hub := newTestHub()
	client := &Client{
		ID:        "client-1",
		Resources: []string{"doctors"},
		Send:      make(chan []byte, 256),
	}

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.SubscriberCount("doctors") != 1 {
		t.Fatalf("expected 1 subscriber on doctors, got %d", hub.SubscriberCount("doctors"))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub()
	client := &Client{
		ID:        "client-2",
		Resources: []string{"patients"},
		Send:      make(chan []byte, 256),
	}

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.SubscriberCount("patients") != 0 {
		t.Fatalf("expected 0 subscribers on patients, got %d", hub.SubscriberCount("patients"))
	}

	if _, ok := <-client.Send; ok {
		t.Fatal("expected Send channel to be closed after unregister")
	}
}

func TestHub_BroadcastToResource(t *testing.T) {
	hub := newTestHub()

	subscriber := &Client{
		ID:        "sub-1",
		Resources: []string{"appointments"},
		Send:      make(chan []byte, 256),
	}
	other := &Client{
		ID:        "other-1",
		Resources: []string{"rooms"},
		Send:      make(chan []byte, 256),
	}

	hub.Register(subscriber)
	hub.Register(other)

	hub.Broadcast(Event{
		Resource:  "appointments",
		Action:    ActionDeleted,
		ID:        "17",
		Timestamp: time.Now(),
	})

	select {
	case msg := <-subscriber.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if received.Action != ActionDeleted || received.ID != "17" {
			t.Fatalf("unexpected event %+v", received)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-other.Send:
		t.Fatal("non-subscriber should not have received event")
	default:
	}
}

func TestHub_PublishSetsTimestamp(t *testing.T) {
	hub := newTestHub()
	client := &Client{
		ID:        "pub-1",
		Resources: []string{"rooms"},
		Send:      make(chan []byte, 256),
	}
	hub.Register(client)

	var publisher EventPublisher = hub
	if err := publisher.Publish(context.Background(), Event{Resource: "rooms", Action: ActionUpdated, ID: "4"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-client.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Timestamp.IsZero() {
			t.Error("expected Publish to stamp the event")
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := newTestHub()
	client := &Client{
		ID:        "dyn-1",
		Resources: []string{},
		Send:      make(chan []byte, 256),
	}
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Resources: []string{"doctors", "payments"}})
	if hub.SubscriberCount("doctors") != 1 || hub.SubscriberCount("payments") != 1 {
		t.Fatal("expected subscriptions on both resources")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Resources: []string{"doctors"}})
	if hub.SubscriberCount("doctors") != 0 {
		t.Fatalf("expected 0 on doctors, got %d", hub.SubscriberCount("doctors"))
	}
	if hub.SubscriberCount("payments") != 1 {
		t.Fatalf("expected 1 on payments, got %d", hub.SubscriberCount("payments"))
	}
	if len(client.Resources) != 1 {
		t.Fatalf("expected 1 resource remaining, got %d", len(client.Resources))
	}
}

func TestHub_BroadcastToEmptyResource(t *testing.T) {
	hub := newTestHub()
	// Should not panic.
	hub.Broadcast(Event{Resource: "inpatients", Action: ActionCreated})
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	clients := make([]*Client, n)
	for i := 0; i < n; i++ {
		clients[i] = &Client{
			ID:        "concurrent-" + string(rune('a'+i%26)),
			Resources: []string{"doctors"},
			Send:      make(chan []byte, 256),
		}
	}

	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	if hub.ClientCount() < 0 {
		t.Fatalf("client count should not be negative, got %d", hub.ClientCount())
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	handler := NewHandler(newTestHub())

	e := echo.New()
	handler.RegisterRoutes(e.Group(""))

	found := false
	for _, r := range e.Routes() {
		if r.Path == "/ws/updates" && r.Method == http.MethodGet {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected GET /ws/updates route to be registered")
	}
}

func TestHandler_FullUpgradeWithDialer(t *testing.T) {
	hub := newTestHub()
	handler := NewHandler(hub)

	e := echo.New()
	handler.RegisterRoutes(e.Group(""))

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/updates"

	dialer := gorillawebsocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() < 1 {
		t.Fatal("expected at least 1 client registered after connect")
	}

	sub := ClientMessage{Action: "subscribe", Resources: []string{"doctors"}}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if hub.SubscriberCount("doctors") != 1 {
		t.Fatalf("expected 1 subscriber on doctors, got %d", hub.SubscriberCount("doctors"))
	}

	hub.Broadcast(Event{Resource: "doctors", Action: ActionCreated, ID: "9", Timestamp: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Resource != "doctors" || received.ID != "9" {
		t.Fatalf("unexpected event %+v", received)
	}
}
