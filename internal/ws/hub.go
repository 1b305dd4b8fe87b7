package ws

import (
	"encoding/json"
	"sync"

	"maitred/internal/events"
	"maitred/internal/metrics"
)

// Message is the frame pushed to dashboard clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomMessage struct {
	RestaurantID int64
	Message      Message
}

// Hub fans domain events out to the dashboard connections of one process.
// Clients join the room of the restaurant they watch.
type Hub struct {
	rooms map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
	}
}

// Run owns the room maps. Start it once: go hub.Run().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.restaurantID] == nil {
				h.rooms[client.restaurantID] = make(map[*Client]bool)
			}
			h.rooms[client.restaurantID][client] = true
			h.mu.Unlock()
			metrics.WSConnected()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.restaurantID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.restaurantID)
					}
					metrics.WSDisconnected()
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[msg.RestaurantID]

			frame, err := json.Marshal(msg.Message)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer; drop the connection rather than block.
					close(client.send)
					delete(h.rooms[msg.RestaurantID], client)
					if len(h.rooms[msg.RestaurantID]) == 0 {
						delete(h.rooms, msg.RestaurantID)
					}
					metrics.WSDisconnected()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every client watching the restaurant.
func (h *Hub) Broadcast(restaurantID int64, msg Message) {
	h.broadcast <- &roomMessage{RestaurantID: restaurantID, Message: msg}
}

// SubscribeBus relays booking, table and menu events from the in-process bus
// to the restaurant rooms, so every open dashboard repaints without polling.
func (h *Hub) SubscribeBus(bus *events.EventBus) {
	booking := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		h.Broadcast(payload.RestaurantID, Message{Type: event.Type, Payload: event.Payload})
		return nil
	}
	table := func(event *events.Event) error {
		var payload events.TableEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		h.Broadcast(payload.RestaurantID, Message{Type: event.Type, Payload: event.Payload})
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, booking)
	bus.Subscribe(events.EventBookingStatusChanged, booking)
	bus.Subscribe(events.EventBookingTablesChanged, booking)
	bus.Subscribe(events.EventTableUpdated, table)
	bus.Subscribe(events.EventMenuUpdated, table)
}
