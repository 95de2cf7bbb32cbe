package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event names published by the inventory service. Observers (the UI layer,
// the RabbitMQ bridge) subscribe to these to refresh or relay.
const (
	InventoryLoaded  = "inventoryLoaded"
	ProductAdded     = "productAdded"
	ProductUpdated   = "productUpdated"
	ProductDeleted   = "productDeleted"
	SaleProcessed    = "saleProcessed"
	ProductRestocked = "productRestocked"
	StockAdjusted    = "stockAdjusted"
	DataImported     = "dataImported"
)

// Event is a single notification emitted after a ledger mutation.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Notifier is the notification surface the inventory service publishes to.
type Notifier interface {
	Publish(event Event)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Event)

// Publish calls f(event).
func (f NotifierFunc) Publish(event Event) {
	f(event)
}

// Hub is an in-process fan-out of ledger events to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
}

// NewHub creates a new event hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is buffered; slow subscribers drop events rather than block publishers.
func (h *Hub) Subscribe() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 64)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			logrus.Warnf("Dropping event %s for a slow subscriber", event.Type)
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
