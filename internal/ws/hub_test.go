package ws

import (
	"encoding/json"
	"testing"
	"time"

	"maitred/internal/events"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, restaurantID int64) *Client {
	return &Client{
		hub:          hub,
		restaurantID: restaurantID,
		send:         make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 1)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[1] == nil {
		t.Fatal("restaurant room not created")
	}
	if !hub.rooms[1][client] {
		t.Fatal("client not registered in restaurant room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 1)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[1] != nil {
		t.Fatal("restaurant room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleRestaurant(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, 1)
	client2 := mockClient(hub, 2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"booking_id":123}`)
	hub.Broadcast(1, Message{Type: events.EventBookingCreated, Payload: testPayload})

	select {
	case msg := <-client1.send:
		var received Message
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != events.EventBookingCreated {
			t.Errorf("expected type %s, got %s", events.EventBookingCreated, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload %s, got %s", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different restaurant")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, 1)
	client2 := mockClient(hub, 1)
	client3 := mockClient(hub, 1)

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(1, Message{Type: events.EventMenuUpdated, Payload: json.RawMessage(`{"menu_item_id":3}`)})

	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Message
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != events.EventMenuUpdated {
				t.Errorf("client%d: expected type %s, got %s", i+1, events.EventMenuUpdated, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, 1)
	client2 := mockClient(hub, 1)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[1]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[1]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[1]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[1]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[1] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 1)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(99, Message{Type: events.EventBookingCreated, Payload: json.RawMessage(`{}`)})

	select {
	case <-client.send:
		t.Fatal("client should not receive message for different restaurant")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestSubscribeBusRelaysBookingEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bus := events.NewEventBus()
	hub.SubscribeBus(bus)

	client := mockClient(hub, 7)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	payload := events.BookingEventPayload{BookingID: 55, RestaurantID: 7, Status: "seated"}
	if err := bus.PublishJSON(events.EventBookingStatusChanged, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-client.send:
		var received Message
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if received.Type != events.EventBookingStatusChanged {
			t.Errorf("expected type %s, got %s", events.EventBookingStatusChanged, received.Type)
		}
		var booking events.BookingEventPayload
		if err := json.Unmarshal(received.Payload, &booking); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if booking.BookingID != 55 {
			t.Errorf("expected booking 55, got %d", booking.BookingID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive relayed event")
	}
}

func TestSubscribeBusRelaysTableEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bus := events.NewEventBus()
	hub.SubscribeBus(bus)

	client := mockClient(hub, 3)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	payload := events.TableEventPayload{RestaurantID: 3, TableID: 12}
	if err := bus.PublishJSON(events.EventTableUpdated, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-client.send:
		var received Message
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if received.Type != events.EventTableUpdated {
			t.Errorf("expected type %s, got %s", events.EventTableUpdated, received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive relayed event")
	}
}
