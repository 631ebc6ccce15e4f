package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Sephra1/lisk-sdk/logx"
)

type SubscriberID string

type Subscriber struct {
	ID      SubscriberID
	Topic   Topic
	Channel chan ChainEvent
}

// Bus fans chain events out to topic subscribers. Publishing never blocks;
// a subscriber whose channel is full misses the event.
type Bus struct {
	subscribers map[SubscriberID]*Subscriber
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[SubscriberID]*Subscriber),
	}
}

func (eb *Bus) generateUUIDID() SubscriberID {
	id := uuid.Must(uuid.NewV7())
	return SubscriberID(id.String())
}

// Subscribe registers a subscriber for the given topic
func (eb *Bus) Subscribe(topic Topic) (SubscriberID, chan ChainEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := eb.generateUUIDID()

	ch := make(chan ChainEvent, 50) // Buffer for events
	subscriber := &Subscriber{
		ID:      id,
		Topic:   topic,
		Channel: ch,
	}

	eb.subscribers[id] = subscriber

	logx.Info("EVENTBUS", fmt.Sprintf("Subscribed to topic | topic=%s | subscriber_id=%s | total_subscribers=%d", topic, id, len(eb.subscribers)))

	return id, ch
}

// Unsubscribe removes a subscription by ID
func (eb *Bus) Unsubscribe(id SubscriberID) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscriber, exists := eb.subscribers[id]
	if !exists {
		logx.Warn("EVENTBUS", fmt.Sprintf("Attempted to unsubscribe non-existent subscriber | subscriber_id=%s", id))
		return false
	}

	delete(eb.subscribers, id)
	close(subscriber.Channel)

	logx.Info("EVENTBUS", fmt.Sprintf("Unsubscribed | subscriber_id=%s | remaining_subscribers=%d", id, len(eb.subscribers)))
	return true
}

// Publish delivers an event to every subscriber of its topic
func (eb *Bus) Publish(event ChainEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, subscriber := range eb.subscribers {
		if subscriber.Topic != event.Topic() {
			continue
		}
		select {
		case subscriber.Channel <- event:
			// Event sent successfully
		default:
			// Channel is full, skip this subscriber
			logx.Warn("EVENTBUS", fmt.Sprintf("Subscriber channel full | subscriber_id=%s | topic=%s", id, event.Topic()))
		}
	}
}

// GetTotalSubscriptions returns the total number of active subscriptions
func (eb *Bus) GetTotalSubscriptions() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers)
}

// HasSubscriber checks if a subscriber with the given ID exists
func (eb *Bus) HasSubscriber(id SubscriberID) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	_, exists := eb.subscribers[id]
	return exists
}
