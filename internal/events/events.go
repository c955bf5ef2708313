package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventReservationCreated     = "reservation_created"
	EventReservationConfirmed   = "reservation_confirmed"
	EventReservationCancelled   = "reservation_cancelled"
	EventReservationCompleted   = "reservation_completed"
	EventReservationExpired     = "reservation_expired"
	EventReservationNoShow      = "reservation_no_show"
	EventWeatherHoldPlaced      = "weather_hold_placed"
	EventWeatherHoldRemoved     = "weather_hold_removed"
	EventReservationRescheduled = "reservation_rescheduled"
)

// ReservationEventPayload is the minimal reservation snapshot handed to
// event consumers (notification dispatch, exports).
type ReservationEventPayload struct {
	ReservationID string    `json:"reservation_id"`
	CaptainID     string    `json:"captain_id"`
	VesselID      string    `json:"vessel_id,omitempty"`
	OfferingID    string    `json:"offering_id"`
	GuestName     string    `json:"guest_name"`
	Status        string    `json:"status"`
	PartySize     int       `json:"party_size"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	HoldReason    string    `json:"hold_reason,omitempty"`
	Actor         string    `json:"actor,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
